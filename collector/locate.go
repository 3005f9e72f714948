package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/collector/model"
	"github.com/robertof/go-switchbot-exporter/device"
	"github.com/robertof/go-switchbot-exporter/utils"
	"github.com/rs/zerolog/log"
)

// Locate scans for target and returns the first advertisement it sends, or model.TimedOut
// once timeout elapses. The scan session has always been torn down when Locate returns.
// Transport failures are returned wrapped in ble.ErrTransport.
func Locate(
  parentCtx context.Context,
  scanner ble.Scanner,
  target device.Device,
  timeout time.Duration,
) (model.ScanResult, error) {
  ctx, cancel := context.WithTimeout(parentCtx, timeout)
  defer cancel()

  // buffered: the transport may still deliver advertisements after we are done.
  matched := make(chan ble.Advertisement, 1)
  var once sync.Once

  filter := ble.Filter{
    Addresses: []net.HardwareAddr{target.Addr()},
    Transport: ble.TransportLE,
  }

  log.Trace().
    Stringer("Device", target).
    Dur("TimeoutSec", timeout).
    Msg("Locate: starting scan")

  err := scanner.Scan(ctx, filter, func(a ble.Advertisement) {
    if !target.Matches(a.Addr) {
      return
    }

    once.Do(func() {
      matched <- a
      cancel()
    })
  })

  select {
  case a := <-matched:
    log.Trace().
      Stringer("Device", target).
      Object("Advertisement", a).
      Msg("Locate: device matched")

    return model.Matched(a), nil
  default:
  }

  if err != nil && !utils.ErrorIsAnyOf(err, context.DeadlineExceeded, context.Canceled) {
    if !errors.Is(err, ble.ErrTransport) {
      err = fmt.Errorf("%w: %w", ble.ErrTransport, err)
    }

    return model.TimedOut, err
  }

  if parentErr := parentCtx.Err(); parentErr != nil {
    return model.TimedOut, parentErr
  }

  // the scanner gave up before the deadline without seeing the device: not-found is only
  // reported once the deadline passed.
  <-ctx.Done()

  return model.TimedOut, nil
}
