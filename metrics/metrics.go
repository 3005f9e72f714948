package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-switchbot-exporter/collector/model"
	"github.com/rs/zerolog/log"
)

var (
  descRSSI = prometheus.NewDesc(
    "switchbot_rssi",
    "Device received signal strength indicator (RSSI)",
    []string{"device"},
    nil,
  )

  descBattery = prometheus.NewDesc(
    "switchbot_battery",
    "Device battery percentage",
    []string{"device"},
    nil,
  )

  descHumidity = prometheus.NewDesc(
    "switchbot_humidity",
    "Humidity percentage measured by the device",
    []string{"device"},
    nil,
  )

  descTemperature = prometheus.NewDesc(
    "switchbot_temperature",
    "Temperature in celsius measured by the device",
    []string{"device"},
    nil,
  )
)

// CollectFunc is called once per scrape. A nil observation without error means there is
// nothing to report this time.
type CollectFunc func() (*model.Observation, error)

type collector struct {
  CollectFunc
}

// Describe must not scan, so the descriptors are sent directly rather than derived from a
// collection.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  ch <- descRSSI
  ch <- descBattery
  ch <- descHumidity
  ch <- descTemperature
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  obs, err := c.CollectFunc()

  if err != nil {
    log.Error().Err(err).Msg("Collection failed, failing the scrape")

    // makes the registry report the error, which promhttp turns into a failed scrape.
    ch <- prometheus.NewInvalidMetric(descRSSI, err)
    return
  }

  if obs == nil {
    return
  }

  samples := []struct {
    desc *prometheus.Desc
    value float64
  }{
    {descRSSI, float64(obs.RSSI)},
    {descBattery, float64(obs.Reading.Battery)},
    {descHumidity, float64(obs.Reading.Humidity)},
    {descTemperature, obs.Reading.Temperature},
  }

  for _, sample := range samples {
    m := prometheus.MustNewConstMetric(
      sample.desc,
      prometheus.GaugeValue,
      sample.value,
      obs.Device,
    )

    ch <- prometheus.NewMetricWithTimestamp(obs.Timestamp, m)
  }
}

func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
  c := &collector{f}

  reg.MustRegister(c)
}
