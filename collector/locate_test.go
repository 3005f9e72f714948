package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/collector/model"
	"github.com/robertof/go-switchbot-exporter/device/switchbot"
	"github.com/stretchr/testify/require"
)

const (
  targetAddr = "D4:0E:84:AA:BB:CC"
  otherAddr  = "11:22:33:44:55:66"
)

func mustDevice(t *testing.T, addr string) *switchbot.Device {
  t.Helper()

  d, err := switchbot.FromAddr(addr)
  require.NoError(t, err)

  return d
}

func meterAdvertisement(addr string, payload []byte) ble.Advertisement {
  return ble.Advertisement{
    Addr:      addr,
    LocalName: "WoSensorTH",
    RSSI:      -67,
    ServiceData: ble.ServiceData{
      switchbot.ServiceUUID: payload,
    },
  }
}

func TestLocate_ReturnsFirstMatchWithoutWaitingForTimeout(t *testing.T) {
  scanner := &fakeScanner{
    events: []fakeEvent{
      {delay: 5 * time.Millisecond, adv: meterAdvertisement(otherAddr, nil)},
      {delay: 20 * time.Millisecond, adv: meterAdvertisement("d4:0e:84:aa:bb:cc", []byte{1})},
      {delay: 0, adv: meterAdvertisement(targetAddr, []byte{2})},
    },
  }

  start := time.Now()
  res, err := Locate(context.Background(), scanner, mustDevice(t, targetAddr), 5*time.Second)

  require.NoError(t, err)
  require.Less(t, time.Since(start), 2*time.Second)
  require.Equal(t, model.ScanMatched, res.Outcome)
  require.Equal(t, []byte{1}, res.Advertisement.ServiceData[switchbot.ServiceUUID])
  require.Zero(t, scanner.active.Load(), "scan session still active")
}

func TestLocate_PassesAddressAndTransportFilter(t *testing.T) {
  scanner := &fakeScanner{}

  _, err := Locate(context.Background(), scanner, mustDevice(t, targetAddr), 10*time.Millisecond)
  require.NoError(t, err)

  require.Len(t, scanner.filters, 1)
  require.Equal(t, ble.TransportLE, scanner.filters[0].Transport)
  require.Len(t, scanner.filters[0].Addresses, 1)
  require.Equal(t, targetAddr, ble.NormalizeAddr(scanner.filters[0].Addresses[0].String()))
}

func TestLocate_TimesOut(t *testing.T) {
  timeout := 100 * time.Millisecond
  scanner := &fakeScanner{
    events: []fakeEvent{
      {delay: 10 * time.Millisecond, adv: meterAdvertisement(otherAddr, nil)},
    },
  }

  start := time.Now()
  res, err := Locate(context.Background(), scanner, mustDevice(t, targetAddr), timeout)

  require.NoError(t, err)
  require.Equal(t, model.TimedOut, res)
  require.GreaterOrEqual(t, time.Since(start), timeout)
  require.Zero(t, scanner.active.Load(), "scan session still active")
}

func TestLocate_EarlyEndIsNotReportedBeforeDeadline(t *testing.T) {
  timeout := 80 * time.Millisecond
  scanner := &fakeScanner{endEarly: true}

  start := time.Now()
  res, err := Locate(context.Background(), scanner, mustDevice(t, targetAddr), timeout)

  require.NoError(t, err)
  require.Equal(t, model.ScanTimedOut, res.Outcome)
  require.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestLocate_TransportFailure(t *testing.T) {
  adapterErr := errors.New("hci0: operation not permitted")
  scanner := &fakeScanner{err: adapterErr}

  res, err := Locate(context.Background(), scanner, mustDevice(t, targetAddr), time.Second)

  require.Error(t, err)
  require.ErrorIs(t, err, ble.ErrTransport)
  require.ErrorIs(t, err, adapterErr)
  require.Equal(t, model.ScanTimedOut, res.Outcome)
  require.Zero(t, scanner.active.Load(), "scan session still active")
}

func TestLocate_ParentCancelled(t *testing.T) {
  ctx, cancel := context.WithCancel(context.Background())
  cancel()

  _, err := Locate(ctx, &fakeScanner{}, mustDevice(t, targetAddr), time.Second)

  require.ErrorIs(t, err, context.Canceled)
  require.NotErrorIs(t, err, ble.ErrTransport)
}
