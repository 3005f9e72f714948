package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"tinygo.org/x/bluetooth"
)

// BlueZ scans through the system Bluetooth daemon instead of a raw HCI socket.
type BlueZ struct {
  adapter *bluetooth.Adapter

  // BlueZ refuses to start a second discovery session on the same adapter.
  mu sync.Mutex
}

func InitBlueZ() (*BlueZ, error) {
  adapter := bluetooth.DefaultAdapter

  log.Debug().Msg("Enabling BlueZ adapter")

  if err := adapter.Enable(); err != nil {
    return nil, fmt.Errorf("failed to enable bluetooth adapter: %w", err)
  }

  return &BlueZ{adapter: adapter}, nil
}

func (b *BlueZ) Scan(ctx context.Context, filter Filter, onAdvertisement func(Advertisement)) error {
  if filter.Transport != TransportLE {
    return fmt.Errorf("bluez: unsupported transport %v", filter.Transport)
  }

  if err := ctx.Err(); err != nil {
    return err
  }

  b.mu.Lock()
  defer b.mu.Unlock()

  allowed := newAddressSet(filter.Addresses)
  stopped := make(chan struct{})
  defer close(stopped)

  go func() {
    select {
    case <-stopped:
      return
    case <-ctx.Done():
    }

    // StopScan fails until the discovery session is actually running.
    for b.adapter.StopScan() != nil {
      select {
      case <-stopped:
        return
      case <-time.After(10 * time.Millisecond):
      }
    }
  }()

  err := b.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
    if ctx.Err() != nil {
      return
    }

    if !allowed.contains(result.Address.String()) {
      return
    }

    adv := fromScanResult(result)

    log.Trace().
      Object("Advertisement", adv).
      Msg("bluez: received advertisement")

    onAdvertisement(adv)
  })

  if err != nil {
    return fmt.Errorf("failed to initiate scan: %w", err)
  }

  // the scan only ends through StopScan, which only happens once ctx is done.
  return ctx.Err()
}

func fromScanResult(r bluetooth.ScanResult) Advertisement {
  adv := Advertisement{
    Addr:      NormalizeAddr(r.Address.String()),
    LocalName: r.LocalName(),
    RSSI:      int(r.RSSI),
  }

  if sd := r.ServiceData(); len(sd) > 0 {
    adv.ServiceData = make(ServiceData, len(sd))

    for _, entry := range sd {
      id, err := uuid.Parse(entry.UUID.String())

      if err != nil {
        continue
      }

      adv.ServiceData[id] = entry.Data
    }
  }

  return adv
}
