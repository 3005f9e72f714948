package device

import (
	"fmt"
)

type Reading struct {
  // Percent, 0-100.
  Battery uint8
  // Celsius, 0.1 resolution.
  Temperature float64
  // Relative humidity percent, 0-100.
  Humidity uint8
}

func (r Reading) String() string {
  return fmt.Sprintf("Reading[Temperature=%.1f,Humidity=%d%%,Battery=%d%%]",
    r.Temperature, r.Humidity, r.Battery)
}
