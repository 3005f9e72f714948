package switchbot

import (
	"fmt"
	"net"
	"strings"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/device"
)

// Device is a SwitchBot meter identified by its public address.
type Device struct {
  addr net.HardwareAddr
  name string
}

var _ device.Device = (*Device)(nil)

func FromAddr(addr string) (*Device, error) {
  hwAddr, err := net.ParseMAC(strings.TrimSpace(addr))
  if err != nil {
    return nil, fmt.Errorf("invalid addr: %w", err)
  }

  if len(hwAddr) != 6 {
    return nil, fmt.Errorf("invalid addr %q: want a 6 byte Bluetooth address", addr)
  }

  return &Device{
    addr: hwAddr,
    name: strings.ToUpper(hwAddr.String()),
  }, nil
}

// Name is the canonical uppercase address.
func (d *Device) Name() string {
  return d.name
}

func (d *Device) Addr() net.HardwareAddr {
  return d.addr
}

func (d *Device) Matches(addr string) bool {
  return ble.NormalizeAddr(addr) == d.name
}

func (d *Device) String() string {
  return fmt.Sprintf("switchbot[addr=%v]", d.name)
}
