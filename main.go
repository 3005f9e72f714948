package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/collector"
	"github.com/robertof/go-switchbot-exporter/collector/model"
	"github.com/robertof/go-switchbot-exporter/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  // variables already in the environment win over the .env file.
  if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
    log.Warn().Err(err).Msg("Failed to load .env file")
  }

  cfg := ParseArgs()

  if cfg.Trace {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  if cfg.DiscoverDevices {
    doDeviceDiscovery(cfg)
    return
  }

  log.Info().
    Str("ListenAddress", cfg.ListenAddress()).
    Stringer("Device", cfg.Device).
    Dur("ScanTimeoutSec", cfg.ScanTimeout).
    Str("Backend", string(cfg.Backend)).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Msg("Starting with the specified configuration")

  scanner := initScanner(cfg, ble.FlagScanTypeActive | ble.FlagEnableDeviceAllowList)
  scraper := collector.NewScraper(scanner, cfg.Device, cfg.ScanTimeout)

  registry := prometheus.NewRegistry()

  metrics.RegisterCollector(
    func() (*model.Observation, error) {
      // no way to get the HTTP request context from the collector unfortunately :(
      return scraper.Scrape(context.Background())
    },
    registry,
  )

  if cfg.EnableMetamonitoring {
    collector.RegisterMetrics(registry)
    registry.MustRegister(
      collectors.NewGoCollector(),
      collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )
  }

  log.Info().
      Str("ListenAddress", cfg.ListenAddress()).
      Msg("Starting Prometheus server")

  http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
    ErrorHandling: promhttp.HTTPErrorOnError,
  }))

  if err := http.ListenAndServe(cfg.ListenAddress(), nil); err != nil {
      log.Fatal().Err(err).Msg("Unable to bind on requested address")
  }
}

// initScanner brings up the configured Bluetooth stack once. The scanner is reused by every
// scrape for the lifetime of the process.
func initScanner(cfg config, flags ble.Flags) ble.Scanner {
  switch cfg.Backend {
  case ble.BackendBlueZ:
    scanner, err := ble.InitBlueZ()

    if err != nil {
      log.Fatal().Err(err).Msg("Failed to initialize BlueZ adapter")
    }

    return scanner
  default:
    handle, err := ble.Init(cfg.BluetoothDeviceId, flags)

    if err != nil {
      log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
    }

    return handle
  }
}
