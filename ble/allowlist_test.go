package ble

import (
	"net"
	"testing"
)

func TestAllowListEntries_BothAddressTypes(t *testing.T) {
  addr, _ := net.ParseMAC("D4:0E:84:AA:BB:CC")

  entries, err := allowListEntries([]net.HardwareAddr{addr})

  if err != nil {
    t.Fatalf("allowListEntries() got error: %v", err)
  }

  if len(entries) != 2 {
    t.Fatalf("expected 2 entries (public and random), got %d", len(entries))
  }

  want := [6]byte{0xcc, 0xbb, 0xaa, 0x84, 0x0e, 0xd4}
  types := map[uint8]bool{}

  for _, entry := range entries {
    if entry.Address != want {
      t.Fatalf("expected little-endian address %x, got %x", want, entry.Address)
    }

    if got := entryAddr(entry); got != "D4:0E:84:AA:BB:CC" {
      t.Fatalf("entryAddr() = %q", got)
    }

    types[entry.AddressType] = true
  }

  if !types[addressTypePublic] || !types[addressTypeRandom] {
    t.Fatalf("expected public and random address types, got %v", types)
  }
}

func TestAllowListEntries_Multiple(t *testing.T) {
  first, _ := net.ParseMAC("D4:0E:84:AA:BB:CC")
  second, _ := net.ParseMAC("C0:11:22:33:44:55")

  entries, err := allowListEntries([]net.HardwareAddr{first, second})

  if err != nil {
    t.Fatalf("allowListEntries() got error: %v", err)
  }

  if len(entries) != 4 {
    t.Fatalf("expected 4 entries, got %d", len(entries))
  }

  if entryAddr(entries[2]) != "C0:11:22:33:44:55" {
    t.Fatalf("unexpected entry order: %q", entryAddr(entries[2]))
  }
}

func TestAllowListEntries_RejectsNon6ByteAddresses(t *testing.T) {
  long, _ := net.ParseMAC("00:00:5e:00:53:01:02:03")

  if _, err := allowListEntries([]net.HardwareAddr{long}); err == nil {
    t.Fatalf("expected 8 byte address to be rejected")
  }
}
