package ble

import (
	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/robertof/go-switchbot-exporter/utils"
)

// BaseUUID is the Bluetooth base UUID short (16 and 32 bit) UUIDs are expanded into.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

func UUID16(i uint16) uuid.UUID {
  u := BaseUUID
  u[2] = byte(i >> 8)
  u[3] = byte(i)

  return u
}

func UUID32(i uint32) uuid.UUID {
  u := BaseUUID
  u[0] = byte(i >> 24)
  u[1] = byte(i >> 16)
  u[2] = byte(i >> 8)
  u[3] = byte(i)

  return u
}

// UUIDFromBLE expands a go-ble UUID (stored little-endian, 2, 4 or 16 bytes long) into a
// full 128-bit UUID.
func UUIDFromBLE(u ble.UUID) (uuid.UUID, bool) {
  b := utils.Reverse(u)

  switch len(b) {
  case 2:
    return UUID16(uint16(b[0]) << 8 | uint16(b[1])), true
  case 4:
    return UUID32(uint32(b[0]) << 24 | uint32(b[1]) << 16 | uint32(b[2]) << 8 | uint32(b[3])), true
  case 16:
    id, err := uuid.FromBytes(b)
    return id, err == nil
  default:
    return uuid.Nil, false
  }
}
