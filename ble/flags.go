package ble

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Flags int

const (
  // Run active scans rather than passive scans (requiring explicit responses from peripherals).
  FlagScanTypeActive Flags = 1 << iota
  // Only report advertisements from the addresses passed in the scan filter. On HCI this is
  // enforced by the controller allow-list.
  FlagEnableDeviceAllowList
)

func (f Flags) String() string {
  var flags []string

  if f & FlagScanTypeActive == FlagScanTypeActive {
    flags = append(flags, "active scan")
  }

  if f & FlagEnableDeviceAllowList == FlagEnableDeviceAllowList {
    flags = append(flags, "device allow-list")
  }

  if len(flags) == 0 {
    return "none"
  }

  return strings.Join(flags, ", ")
}

// Transport is the radio mode a scan is restricted to.
type Transport uint8

const (
  TransportLE Transport = iota
  TransportBREDR
)

func (t Transport) String() string {
  switch t {
  case TransportLE:
    return "le"
  case TransportBREDR:
    return "bredr"
  default:
    panic("unknown Transport value: " + strconv.Itoa(int(t)))
  }
}

// Backend selects the Bluetooth stack used to scan.
type Backend string

const (
  // Raw HCI socket via go-ble. Needs CAP_NET_ADMIN and exclusive access to the adapter.
  BackendHCI Backend = "hci"
  // BlueZ over D-Bus. Shares the adapter with the rest of the system.
  BackendBlueZ Backend = "bluez"
)

var allBackends = []Backend{BackendHCI, BackendBlueZ}

// *flag.Value
func (b *Backend) String() string {
  return string(*b)
}

func (b *Backend) Set(v string) error {
  if v == "" {
    *b = BackendHCI
    return nil
  }

  p := Backend(strings.ToLower(v))

  if !slices.Contains(allBackends, p) {
    return fmt.Errorf("unknown backend %v (must be one of %v)", v, allBackends)
  }

  *b = p
  return nil
}

type scanType uint8

const (
  scanTypePassive scanType = iota
  scanTypeActive
)

func (s scanType) String() string {
  switch s {
  case scanTypeActive:
    return "Active"
  case scanTypePassive:
    return "Passive"
  default:
    panic("unknown scanType value: " + strconv.Itoa(int(s)))
  }
}

type filterPolicy uint8

const (
  filterPolicyAcceptAll filterPolicy = iota
  filterPolicyAllowListedOnly
)

func (f filterPolicy) String() string {
  switch f {
  case filterPolicyAcceptAll:
    return "Accept All"
  case filterPolicyAllowListedOnly:
    return "Allow-listed Only"
  default:
    panic("unknown filterPolicy value: " + strconv.Itoa(int(f)))
  }
}
