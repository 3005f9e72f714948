package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/device"
	"github.com/robertof/go-switchbot-exporter/device/switchbot"
	"github.com/robertof/go-switchbot-exporter/utils"
)

const discoveryDuration = 5 * time.Second

type discoveredDevice struct {
  name string
  connectable bool
  rssi int
  services map[uuid.UUID]bool
  reading *device.Reading
}

// merge folds a new advertisement into what is known about its sender. Scan responses and
// plain advertisements carry different fields, so nothing already known is dropped.
func (d *discoveredDevice) merge(a ble.Advertisement) {
  if d.services == nil {
    d.services = make(map[uuid.UUID]bool)
  }

  if d.name == "" {
    d.name = a.LocalName
  }

  d.connectable = d.connectable || a.Connectable
  d.rssi = a.RSSI

  for _, id := range a.Services {
    d.services[id] = true
  }

  for id := range a.ServiceData {
    d.services[id] = true
  }

  if reading, err := switchbot.ParseServiceData(a.ServiceData); err == nil {
    d.reading = &reading
  }
}

func doDeviceDiscovery(cfg config) {
  log.Info().
    Dur("DurationSec", discoveryDuration).
    Msg("Starting in device discovery mode - collecting devices...")

  // no allow-list: everything in range is reported.
  scanner := initScanner(cfg, ble.FlagScanTypeActive)
  defer ble.Release(scanner)

  ctx := ble.WrapContextWithSigHandler(
    context.WithTimeout(
      context.Background(),
      discoveryDuration,
    ),
  )

  devices := make(map[string]*discoveredDevice)

  err := scanner.Scan(ctx, ble.Filter{Transport: ble.TransportLE}, func(a ble.Advertisement) {
    info, ok := devices[a.Addr]

    if !ok {
      info = &discoveredDevice{}
      devices[a.Addr] = info
    }

    info.merge(a)

    log.Debug().
      Object("Advertisement", a).
      Msg("Received device advertisement")
  })

  if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
    log.Error().Err(err).Msg("Failed to initiate scan")
    return
  }

  log.Info().Int("Found", len(devices)).Msg("Finished device discovery")

  for addr, data := range devices {
    ev := log.Info().
      Str("Addr", addr).
      Str("Name", data.name).
      Bool("Connectable", data.connectable).
      Int("RSSI", data.rssi).
      Array("Services", utils.ToZeroLogArray(maps.Keys(data.services)))

    if data.reading != nil {
      ev = ev.Stringer("SwitchBotReading", data.reading)
    }

    ev.Msg("Found device")
  }
}
