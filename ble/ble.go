package ble

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
	"github.com/robertof/go-switchbot-exporter/utils"
	"github.com/rs/zerolog/log"
)

// Handle owns the HCI device for the whole process lifetime. Every scan reuses it.
type Handle struct {
  dev *linux.Device
  flags Flags

  mu sync.Mutex
  allowListed []string
}

func Init(deviceId int, flags Flags) (*Handle, error) {
  var scanType scanType = scanTypePassive
  var filterPolicy filterPolicy = filterPolicyAcceptAll

  if flags & FlagScanTypeActive == FlagScanTypeActive {
    scanType = scanTypeActive
  }

  if flags & FlagEnableDeviceAllowList == FlagEnableDeviceAllowList {
    filterPolicy = filterPolicyAllowListedOnly
  }

  log.Debug().
    Stringer("ScanType", scanType).
    Stringer("FilterPolicy", filterPolicy).
    Stringer("Flags", flags).
    Int("DeviceID", deviceId).
    Msg("Initializing Bluetooth device")

  dev, err := linux.NewDevice(
    ble.OptDeviceID(deviceId),
    ble.OptScanParams(cmd.LESetScanParameters{
      LEScanType:           uint8(scanType),     // 0x00: passive, 0x01: active
      LEScanInterval:       0x0004,              // 0x0004 - 0x4000; N * 0.625msec
      LEScanWindow:         0x0004,              // 0x0004 - 0x4000; N * 0.625msec
      OwnAddressType:       0x00,                // 0x00: public, 0x01: random
      ScanningFilterPolicy: uint8(filterPolicy), // 0x00: accept all, 0x01: ignore non-allow-listed.
    }),
  )

  if err != nil {
    return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
  }

  ble.SetDefaultDevice(dev)

  return &Handle{
    dev: dev,
    flags: flags,
  }, nil
}

// ensureAllowListed programs the controller allow-list, skipping the HCI round-trips when it
// already holds exactly these addresses.
func (h *Handle) ensureAllowListed(a []net.HardwareAddr) error {
  want := make([]string, len(a))

  for i, addr := range a {
    want[i] = NormalizeAddr(addr.String())
  }

  slices.Sort(want)

  h.mu.Lock()
  defer h.mu.Unlock()

  if slices.Equal(h.allowListed, want) {
    return nil
  }

  if err := h.SetAllowListedAddresses(a); err != nil {
    h.allowListed = nil
    return err
  }

  h.allowListed = want
  return nil
}

func (h *Handle) SetAllowListedAddresses(a []net.HardwareAddr) error {
  log.Debug().
    Array("DeviceAddresses", utils.ToZeroLogArray(a)).
    Msg("Allow-listing the requested Bluetooth devices")

  entries, err := allowListEntries(a)

  if err != nil {
    return err
  }

  // clear the white list to make sure we're starting from an empty slate.
  var res cmd.LEClearWhiteListRP

  err = h.dev.HCI.Send(&cmd.LEClearWhiteList{}, &res)

  if err != nil {
    return fmt.Errorf("failed to clear allow-list: %w", err)
  }

  if res.Status != 0 {
    return fmt.Errorf("failed to clear allow-list: got status: %v", res.Status)
  }

  for _, entry := range entries {
    var res cmd.LEAddDeviceToWhiteListRP

    err := h.dev.HCI.Send(&entry, &res)

    if err != nil {
      return fmt.Errorf("failed to allow-list device %q: %w", entryAddr(entry), err)
    }

    if res.Status != 0 {
      return fmt.Errorf("failed to allow-list device %q: got status: %v", entryAddr(entry), res.Status)
    }
  }

  return nil
}

// Address types of LE Add Device To White List.
const (
  addressTypePublic = 0x00
  addressTypeRandom = 0x01
)

// allowListEntries builds the HCI allow-list commands for the given addresses. Every address is
// added both as public and as random: meters advertise from a random static address, and the
// controller only matches entries whose type equals the advertiser's.
func allowListEntries(a []net.HardwareAddr) ([]cmd.LEAddDeviceToWhiteList, error) {
  entries := make([]cmd.LEAddDeviceToWhiteList, 0, 2 * len(a))

  for _, addr := range a {
    if len(addr) != 6 {
      return nil, fmt.Errorf("refusing to allow-list non-6 byte device MAC address %q", addr.String())
    }

    var reversed [6]byte

    // HCI wants the address little-endian.
    copy(reversed[:], utils.Reverse(addr))

    for _, addrType := range []uint8{addressTypePublic, addressTypeRandom} {
      entries = append(entries, cmd.LEAddDeviceToWhiteList{
        AddressType: addrType,
        Address:     reversed,
      })
    }
  }

  return entries, nil
}

func entryAddr(entry cmd.LEAddDeviceToWhiteList) string {
  addr := net.HardwareAddr(utils.Reverse(entry.Address[:]))
  return strings.ToUpper(addr.String())
}

func (h *Handle) Stop() {
  if err := h.dev.Stop(); err != nil {
    log.Warn().Err(err).Msg("Failed to stop Bluetooth device")
  }
}
