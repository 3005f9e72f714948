package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/device"
)

type ScanOutcome uint8

const (
  ScanTimedOut ScanOutcome = iota
  ScanMatched
)

func (o ScanOutcome) String() string {
  switch o {
  case ScanTimedOut:
    return "timed_out"
  case ScanMatched:
    return "matched"
  default:
    panic("unknown ScanOutcome value: " + strconv.Itoa(int(o)))
  }
}

// ScanResult is what a bounded scan ends with. Advertisement is only set when matched.
type ScanResult struct {
  Outcome ScanOutcome
  Advertisement ble.Advertisement
}

func Matched(a ble.Advertisement) ScanResult {
  return ScanResult{Outcome: ScanMatched, Advertisement: a}
}

var TimedOut = ScanResult{Outcome: ScanTimedOut}

func (r ScanResult) String() string {
  if r.Outcome == ScanMatched {
    return fmt.Sprintf("scan:matched(%v)", r.Advertisement.Addr)
  }

  return "scan:timed_out"
}

// Observation is one successful scrape: the decoded reading plus everything needed to turn it
// into samples.
type Observation struct {
  // Address as reported by the transport.
  Device string
  RSSI int
  Reading device.Reading
  Timestamp time.Time
}

func (o Observation) String() string {
  return fmt.Sprintf("observation(%v, RSSI=%d, %v)", o.Device, o.RSSI, o.Reading)
}
