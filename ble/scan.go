package ble

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrTransport marks failures of the Bluetooth stack itself (adapter missing, permission
// denied, HCI errors), as opposed to a device simply not advertising.
var ErrTransport = errors.New("bluetooth transport failure")

// Scanner streams advertisements matching a filter until ctx is done. Scan blocks for the
// whole session and must have released every transport resource by the time it returns.
// A session torn down through ctx returns ctx.Err().
type Scanner interface {
  Scan(ctx context.Context, filter Filter, onAdvertisement func(Advertisement)) error
}

type Filter struct {
  // Only advertisements from these addresses are reported. Empty means any address.
  Addresses []net.HardwareAddr
  Transport Transport
}

// ServiceData maps a 128-bit service UUID to its payload.
type ServiceData map[uuid.UUID][]byte

func (s ServiceData) MarshalZerologObject(e *zerolog.Event) {
  for id, data := range s {
    e.Hex(id.String(), data)
  }
}

type Advertisement struct {
  Addr string
  LocalName string
  RSSI int
  Connectable bool
  Services []uuid.UUID
  ServiceData ServiceData
}

func (a Advertisement) MarshalZerologObject(e *zerolog.Event) {
  e.Str("Addr", a.Addr).
    Str("LocalName", a.LocalName).
    Int("RSSI", a.RSSI).
    Bool("Connectable", a.Connectable).
    Object("ServiceData", a.ServiceData)
}

// NormalizeAddr returns the canonical uppercase form of a hardware address, or the
// uppercased input if it can't be parsed.
func NormalizeAddr(addr string) string {
  if hw, err := net.ParseMAC(addr); err == nil {
    return strings.ToUpper(hw.String())
  }

  return strings.ToUpper(strings.TrimSpace(addr))
}

type addressSet map[string]struct{}

func newAddressSet(addrs []net.HardwareAddr) addressSet {
  if len(addrs) == 0 {
    return nil
  }

  set := make(addressSet, len(addrs))

  for _, addr := range addrs {
    set[NormalizeAddr(addr.String())] = struct{}{}
  }

  return set
}

// nil sets accept everything.
func (s addressSet) contains(addr string) bool {
  if s == nil {
    return true
  }

  _, ok := s[NormalizeAddr(addr)]
  return ok
}

// FromAdvertisement converts a go-ble advertisement.
func FromAdvertisement(a ble.Advertisement) Advertisement {
  adv := Advertisement{
    Addr: NormalizeAddr(a.Addr().String()),
    LocalName: a.LocalName(),
    RSSI: a.RSSI(),
    Connectable: a.Connectable(),
  }

  for _, svc := range a.Services() {
    if id, ok := UUIDFromBLE(svc); ok {
      adv.Services = append(adv.Services, id)
    }
  }

  if sd := a.ServiceData(); len(sd) > 0 {
    adv.ServiceData = make(ServiceData, len(sd))

    for _, entry := range sd {
      id, ok := UUIDFromBLE(entry.UUID)

      if !ok {
        log.Trace().
          Hex("UUID", entry.UUID).
          Msg("ble: skipping service data with malformed UUID")
        continue
      }

      adv.ServiceData[id] = entry.Data
    }
  }

  return adv
}

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

// Scan performs a scan restricted to the filter's addresses. When the handle was initialized
// with FlagEnableDeviceAllowList the addresses are pushed to the controller allow-list as well,
// so other devices don't even reach the host.
func (h *Handle) Scan(
  ctx context.Context,
  filter Filter,
  onAdvertisement func(Advertisement),
) error {
  if filter.Transport != TransportLE {
    return fmt.Errorf("hci: unsupported transport %v", filter.Transport)
  }

  if h.flags & FlagEnableDeviceAllowList == FlagEnableDeviceAllowList && len(filter.Addresses) > 0 {
    if err := h.ensureAllowListed(filter.Addresses); err != nil {
      return err
    }
  }

  allowed := newAddressSet(filter.Addresses)

  err := h.dev.Scan(ctx, false, func(a ble.Advertisement) {
    // the BLE lib could send an advertisement even after `Scan()` returns.
    if ctx.Err() != nil {
      return
    }

    if !allowed.contains(a.Addr().String()) {
      return
    }

    adv := FromAdvertisement(a)

    log.Trace().
      Object("Advertisement", adv).
      Msg("ble: received advertisement")

    onAdvertisement(adv)
  })

  if err != nil && !errors.Is(err, ctx.Err()) {
    return fmt.Errorf("failed to initiate scan: %w", err)
  }

  return err
}

// Release stops the scanner's underlying device if it owns one. Long-running processes keep
// their scanner for the whole lifetime and never need this; one-shot modes defer it.
func Release(s Scanner) {
  if stopper, ok := s.(interface{ Stop() }); ok {
    stopper.Stop()
  }
}
