package utils

import "errors"

// ErrorIsAnyOf reports whether errors.Is(err, target) holds for at least one target.
func ErrorIsAnyOf(err error, targets ...error) bool {
  if err == nil {
    return false
  }

  for _, target := range targets {
    if errors.Is(err, target) {
      return true
    }
  }

  return false
}
