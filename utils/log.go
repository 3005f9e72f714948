package utils

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// ToZeroLogArray logs a list of Stringers, sorted so lists built from maps log stably.
func ToZeroLogArray[T fmt.Stringer](arr []T) (ret *zerolog.Array) {
  strs := make([]string, len(arr))

  for i, elem := range arr {
    strs[i] = elem.String()
  }

  slices.Sort(strs)

  ret = zerolog.Arr()

  for _, s := range strs {
    ret = ret.Str(s)
  }

  return ret
}
