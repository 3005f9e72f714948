package device

import (
	"errors"
	"net"
)

var (
  // The advertisement carries no payload for the expected service UUID.
  ErrNoServiceData = errors.New("no service data")
  ErrInvalidData = errors.New("invalid data")
)

type Device interface {
  Name() string
  Addr() net.HardwareAddr
  // Matches reports whether addr, in any case or separator style, designates this device.
  Matches(addr string) bool
  String() string
}
