package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robertof/go-switchbot-exporter/ble"
)

type fakeEvent struct {
  delay time.Duration
  adv   ble.Advertisement
}

// fakeScanner replays events, then either fails with err or idles until ctx is done.
type fakeScanner struct {
  events []fakeEvent
  err    error
  // return nil right after the events instead of waiting for ctx.
  endEarly bool

  calls     atomic.Int32
  active    atomic.Int32
  maxActive atomic.Int32

  mu      sync.Mutex
  filters []ble.Filter
}

func (f *fakeScanner) Scan(ctx context.Context, filter ble.Filter, onAdvertisement func(ble.Advertisement)) error {
  f.calls.Add(1)

  n := f.active.Add(1)
  defer f.active.Add(-1)

  for {
    cur := f.maxActive.Load()
    if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
      break
    }
  }

  f.mu.Lock()
  f.filters = append(f.filters, filter)
  f.mu.Unlock()

  for _, e := range f.events {
    select {
    case <-ctx.Done():
      return ctx.Err()
    case <-time.After(e.delay):
    }

    onAdvertisement(e.adv)
  }

  if f.err != nil {
    return f.err
  }

  if f.endEarly {
    return nil
  }

  <-ctx.Done()
  return ctx.Err()
}
