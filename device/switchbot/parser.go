package switchbot

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robertof/go-switchbot-exporter/device"
)

// ServiceUUID keys the meter payload inside the advertisement service data.
var ServiceUUID = uuid.MustParse("0000fd3d-0000-1000-8000-00805f9b34fb")

const minServiceDataLen = 6

// ParseServiceData decodes the meter payload. Layout, see
// https://github.com/OpenWonderLabs/node-switchbot/blob/bd44206094127456f2b9ec451fafaeb9a77bd787/src/device.ts#L2678
//
//   byte 2: bit 0-6 battery percent
//   byte 3: bit 0-3 temperature tenths
//   byte 4: bit 7 temperature sign (set = above zero), bit 0-6 temperature integer part
//   byte 5: bit 0-6 relative humidity percent
//
// Only the documented bits are read; their values are not range checked.
func ParseServiceData(serviceData map[uuid.UUID][]byte) (reading device.Reading, err error) {
  data, ok := serviceData[ServiceUUID]

  if !ok {
    return reading, errors.Wrapf(device.ErrNoServiceData, "switchbot: no payload for service %v", ServiceUUID)
  }

  if len(data) < minServiceDataLen {
    return reading, errors.Wrapf(device.ErrInvalidData,
      "switchbot: unexpected data length (%d), want >= %d", len(data), minServiceDataLen)
  }

  battery := data[2] & 0b01111111
  tenths := data[3] & 0b00001111
  degrees := data[4] & 0b01111111
  humidity := data[5] & 0b01111111

  sign := -1.0

  if data[4] & 0b10000000 != 0 {
    sign = 1.0
  }

  reading.Battery = battery
  reading.Temperature = sign * (float64(degrees) + float64(tenths) / 10)
  reading.Humidity = humidity

  return reading, nil
}
