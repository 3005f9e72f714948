package collector

import (
	"context"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/collector/model"
	"github.com/robertof/go-switchbot-exporter/device"
	"github.com/robertof/go-switchbot-exporter/device/switchbot"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultScanTimeout = 10 * time.Second

// Scraper runs one scan-and-decode cycle per scrape. Nothing is kept between cycles; scrapes
// that arrive while a cycle is in flight wait for it and share its result, so at most one scan
// runs at a time.
type Scraper struct {
  scanner ble.Scanner
  device device.Device
  timeout time.Duration

  group singleflight.Group
  now func() time.Time
}

func NewScraper(scanner ble.Scanner, dev device.Device, timeout time.Duration) *Scraper {
  if timeout <= 0 {
    timeout = DefaultScanTimeout
  }

  return &Scraper{
    scanner: scanner,
    device: dev,
    timeout: timeout,
    now: time.Now,
  }
}

// Scrape returns the current observation, nil when the device was not found or its payload
// couldn't be decoded, or an error wrapping ble.ErrTransport when scanning itself failed.
func (s *Scraper) Scrape(ctx context.Context) (*model.Observation, error) {
  v, err, shared := s.group.Do(s.device.Name(), func() (any, error) {
    return s.scrape(ctx)
  })

  if shared {
    log.Trace().
      Stringer("Device", s.device).
      Msg("Scrape: shared result of in-flight scan")
  }

  obs, _ := v.(*model.Observation)

  return obs, err
}

func (s *Scraper) scrape(ctx context.Context) (*model.Observation, error) {
  startTime := s.now()

  result, err := Locate(ctx, s.scanner, s.device, s.timeout)

  endTime := s.now()
  elapsed := endTime.Sub(startTime)
  scanDuration.Observe(elapsed.Seconds())

  if err != nil {
    scansCounter.WithLabelValues(outcomeError).Inc()

    log.Error().
      Stringer("Device", s.device).
      Err(err).
      Dur("ElapsedSec", elapsed).
      Msg("Scan failed")

    return nil, err
  }

  if result.Outcome != model.ScanMatched {
    scansCounter.WithLabelValues(outcomeNotFound).Inc()

    log.Warn().
      Stringer("Device", s.device).
      Dur("ElapsedSec", elapsed).
      Msg("Device not found")

    return nil, nil
  }

  scansCounter.WithLabelValues(outcomeMatched).Inc()

  adv := result.Advertisement

  log.Debug().
    Str("Addr", adv.Addr).
    Str("Name", adv.LocalName).
    Int("RSSI", adv.RSSI).
    Msg("Device found")

  reading, err := switchbot.ParseServiceData(adv.ServiceData)

  if err != nil {
    decodeFailuresCounter.Inc()

    log.Warn().
      Stringer("Device", s.device).
      Err(err).
      Object("ServiceData", adv.ServiceData).
      Msg("Unable to parse service data from advertisement")

    return nil, nil
  }

  log.Info().
    Stringer("Device", s.device).
    Stringer("Reading", reading).
    Dur("ElapsedSec", elapsed).
    Msg("Retrieved sensor data")

  return &model.Observation{
    Device: adv.Addr,
    RSSI: adv.RSSI,
    Reading: reading,
    Timestamp: endTime,
  }, nil
}
