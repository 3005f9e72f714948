package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/robertof/go-switchbot-exporter/ble"
	"github.com/robertof/go-switchbot-exporter/device/switchbot"
)

func TestDiscoveredDevice_Merge(t *testing.T) {
  var d discoveredDevice

  other := uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb")

  d.merge(ble.Advertisement{
    Addr: "D4:0E:84:AA:BB:CC",
    LocalName: "WoSensorTH",
    RSSI: -70,
    Connectable: true,
    Services: []uuid.UUID{other},
  })

  // scan response: no name, carries the meter payload.
  d.merge(ble.Advertisement{
    Addr: "D4:0E:84:AA:BB:CC",
    RSSI: -68,
    ServiceData: ble.ServiceData{
      switchbot.ServiceUUID: {0x54, 0x00, 0x32, 0x05, 0x96, 0x28},
    },
  })

  if d.name != "WoSensorTH" || !d.connectable || d.rssi != -68 {
    t.Fatalf("unexpected merge result: %+v", d)
  }

  if !d.services[other] || !d.services[switchbot.ServiceUUID] || len(d.services) != 2 {
    t.Fatalf("unexpected services: %v", d.services)
  }

  if d.reading == nil || d.reading.Temperature != 22.5 {
    t.Fatalf("expected decoded reading, got %v", d.reading)
  }
}
