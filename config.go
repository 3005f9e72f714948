package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/collector"
	"github.com/robertof/go-switchbot-exporter/device/switchbot"
	"gopkg.in/yaml.v3"
)

// Every flag can also be set through SWITCHBOT_<FLAG_NAME>, e.g. SWITCHBOT_DEVICE_ADDR.
const envPrefix = "SWITCHBOT_"

type config struct {
  Debug, Trace bool
  ConfigFile string
  DeviceAddr string
  BindHost string
  MetricsPort int
  ScanTimeoutSec int
  Backend ble.Backend
  BluetoothDeviceId int
  EnableMetamonitoring bool
  DiscoverDevices bool

  // derived
  Device *switchbot.Device
  ScanTimeout time.Duration
}

func (c config) ListenAddress() string {
  return net.JoinHostPort(c.BindHost, strconv.Itoa(c.MetricsPort))
}

func envName(flagName string) string {
  return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func ParseArgs() config {
  cfg, err := parseArgs(flag.CommandLine, os.Args[1:], os.LookupEnv)

  if err != nil {
    fmt.Fprintln(os.Stderr, "Error:", err)
    flag.Usage()
    os.Exit(1)
  }

  return cfg
}

// parseArgs resolves every setting with precedence flags > environment > config file > defaults.
func parseArgs(
  fs *flag.FlagSet,
  args []string,
  lookupEnv func(string) (string, bool),
) (cfg config, err error) {
  cfg.Backend = ble.BackendHCI

  fs.StringVar(&cfg.ConfigFile, "config", "", "Optional YAML file with flag values, keyed by flag name")
  fs.StringVar(&cfg.DeviceAddr, "device-addr", "", "BLE device address (required)")
  fs.StringVar(&cfg.BindHost, "bind-host", "", "Host the metrics server binds to (all interfaces if empty)")
  fs.IntVar(&cfg.MetricsPort, "metrics-port", 8080, "Prometheus metrics port")
  fs.IntVar(&cfg.ScanTimeoutSec, "scan-timeout", int(collector.DefaultScanTimeout / time.Second),
    "Timeout in seconds when scanning for BLE")
  fs.Var(&cfg.Backend, "backend", "Bluetooth stack to scan with (one of 'hci' or 'bluez')")
  fs.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID, hci backend only")
  fs.BoolVar(&cfg.EnableMetamonitoring, "metamonitoring", true, "Enable metamonitoring metrics")
  fs.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover available BLE devices and quit")
  fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  fs.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  if err := fs.Parse(args); err != nil {
    return cfg, err
  }

  explicit := make(map[string]bool)
  fs.Visit(func(f *flag.Flag) {
    explicit[f.Name] = true
  })

  if v, ok := lookupEnv(envName("config")); ok && !explicit["config"] {
    cfg.ConfigFile = v
  }

  if cfg.ConfigFile != "" {
    values, err := loadConfigFile(cfg.ConfigFile)

    if err != nil {
      return cfg, err
    }

    for name, value := range values {
      if fs.Lookup(name) == nil || name == "config" {
        return cfg, fmt.Errorf("config file %v: unknown key %q", cfg.ConfigFile, name)
      }

      if explicit[name] {
        continue
      }

      if err := fs.Set(name, value); err != nil {
        return cfg, fmt.Errorf("config file %v: invalid value for %q: %w", cfg.ConfigFile, name, err)
      }
    }
  }

  var envErr error

  fs.VisitAll(func(f *flag.Flag) {
    if envErr != nil || explicit[f.Name] || f.Name == "config" {
      return
    }

    if v, ok := lookupEnv(envName(f.Name)); ok {
      if err := fs.Set(f.Name, v); err != nil {
        envErr = fmt.Errorf("invalid value for %v: %w", envName(f.Name), err)
      }
    }
  })

  if envErr != nil {
    return cfg, envErr
  }

  return cfg, cfg.validate()
}

func loadConfigFile(path string) (map[string]string, error) {
  raw, err := os.ReadFile(path)
  if err != nil {
    return nil, fmt.Errorf("failed to read config file: %w", err)
  }

  var doc map[string]any
  if err := yaml.Unmarshal(raw, &doc); err != nil {
    return nil, fmt.Errorf("failed to parse config file %v: %w", path, err)
  }

  values := make(map[string]string, len(doc))

  for k, v := range doc {
    switch v.(type) {
    case map[string]any, []any:
      return nil, fmt.Errorf("config file %v: %q must be a scalar", path, k)
    }

    values[k] = fmt.Sprint(v)
  }

  return values, nil
}

func (c *config) validate() error {
  if c.ScanTimeoutSec <= 0 {
    return fmt.Errorf("scan-timeout must be positive, got %d", c.ScanTimeoutSec)
  }

  c.ScanTimeout = time.Duration(c.ScanTimeoutSec) * time.Second

  if c.DiscoverDevices {
    return nil
  }

  if c.DeviceAddr == "" {
    return fmt.Errorf("device-addr is required (or set %v)", envName("device-addr"))
  }

  dev, err := switchbot.FromAddr(c.DeviceAddr)
  if err != nil {
    return fmt.Errorf("device-addr: %w", err)
  }

  c.Device = dev

  if c.MetricsPort < 1 || c.MetricsPort > 65535 {
    return fmt.Errorf("metrics-port must be between 1 and 65535, got %d", c.MetricsPort)
  }

  return nil
}
