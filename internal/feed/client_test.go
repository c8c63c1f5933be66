package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/book"
	"github.com/makerdao/gdax-client/internal/infra"
)

// fakeClock is an adjustable clock for deterministic staleness tests.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

// levels builds book levels from "price:quantity" strings.
func levels(entries ...string) []book.Level {
	out := make([]book.Level, 0, len(entries))
	for _, e := range entries {
		parts := strings.SplitN(e, ":", 2)
		out = append(out, book.Level{
			Price:    decimal.RequireFromString(parts[0]),
			Quantity: decimal.RequireFromString(parts[1]),
		})
	}
	return out
}

func newTestClient(tradeExpiry, bookExpiry time.Duration) (*Client, *fakeClock, *infra.Metrics) {
	clock := &fakeClock{t: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)}
	metrics := &infra.Metrics{}
	client := NewClient("ETH-USD", tradeExpiry, bookExpiry)
	client.now = clock.Now
	client.metrics = metrics
	return client, clock, metrics
}

func TestClient_GetPriceExpiry(t *testing.T) {
	client, clock, metrics := newTestClient(5*time.Second, 5*time.Second)

	if _, ok := client.GetPrice(); ok {
		t.Fatal("GetPrice before any ticker should report absence")
	}

	client.applyTicker(decimal.RequireFromString("1850.25"))

	// Fresh window.
	for _, advance := range []time.Duration{0, 2 * time.Second, 2 * time.Second} {
		clock.Advance(advance)
		price, ok := client.GetPrice()
		if !ok {
			t.Fatalf("GetPrice at +%v should be fresh", clock.t)
		}
		if !price.Equal(decimal.RequireFromString("1850.25")) {
			t.Errorf("GetPrice = %s, want 1850.25", price)
		}
	}

	// Past the threshold: absence, and the expiry transition fires exactly
	// once across repeated queries.
	clock.Advance(2 * time.Second)
	for i := 0; i < 5; i++ {
		if _, ok := client.GetPrice(); ok {
			t.Fatalf("GetPrice query %d past expiry should report absence", i)
		}
		clock.Advance(time.Second)
	}
	if n := metrics.Snapshot().StaleTransitions; n != 1 {
		t.Errorf("stale transitions = %d, want exactly 1", n)
	}
}

func TestClient_HeartbeatKeepsPriceFresh(t *testing.T) {
	client, clock, _ := newTestClient(5*time.Second, 5*time.Second)

	client.applyTicker(decimal.RequireFromString("1850"))

	// Heartbeats through a silent period with no trades.
	for i := 0; i < 4; i++ {
		clock.Advance(4 * time.Second)
		client.applyHeartbeat()
	}

	price, ok := client.GetPrice()
	if !ok {
		t.Fatal("heartbeats should keep the trade feed fresh")
	}
	if !price.Equal(decimal.RequireFromString("1850")) {
		t.Errorf("GetPrice = %s, heartbeat must not change the quoted price", price)
	}
}

func TestClient_HeartbeatWithoutTickerYieldsNoPrice(t *testing.T) {
	client, _, _ := newTestClient(5*time.Second, 5*time.Second)

	client.applyHeartbeat()

	if _, ok := client.GetPrice(); ok {
		t.Error("a heartbeat alone must not produce a price")
	}
}

func TestClient_GetBookPrice(t *testing.T) {
	client, clock, _ := newTestClient(5*time.Second, 5*time.Second)

	if _, ok := client.GetBookPrice(); ok {
		t.Fatal("GetBookPrice before any snapshot should report absence")
	}
	if client.BookInitialized() {
		t.Fatal("book should start uninitialized")
	}

	err := client.applySnapshot(
		levels("100:1", "99:2"),
		levels("101:1", "102:2"),
	)
	if err != nil {
		t.Fatalf("applySnapshot failed: %v", err)
	}
	if !client.BookInitialized() {
		t.Error("book should be initialized after snapshot")
	}

	mid, ok := client.GetBookPrice()
	if !ok {
		t.Fatal("GetBookPrice should be available after snapshot")
	}
	if !mid.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("GetBookPrice = %s, want 100.5", mid)
	}

	// Book feed expires independently of the trade feed.
	clock.Advance(6 * time.Second)
	if _, ok := client.GetBookPrice(); ok {
		t.Error("GetBookPrice past expiry should report absence")
	}
	if !client.BookInitialized() {
		t.Error("staleness must not reset the initialized state")
	}
}

func TestClient_DiffsRefreshBookOncePerMessage(t *testing.T) {
	client, clock, _ := newTestClient(5*time.Second, 5*time.Second)

	if err := client.applySnapshot(levels("100:1"), levels("101:1")); err != nil {
		t.Fatalf("applySnapshot failed: %v", err)
	}

	clock.Advance(4 * time.Second)
	diffs, err := parseChanges([][]string{
		{"buy", "100.5", "1"},
		{"sell", "101", "0"},
		{"sell", "101.5", "2"},
	})
	if err != nil {
		t.Fatalf("parseChanges failed: %v", err)
	}
	if err := client.applyDiffs(diffs); err != nil {
		t.Fatalf("applyDiffs failed: %v", err)
	}

	// (100.5 + 101.5) / 2
	mid, ok := client.GetBookPrice()
	if !ok {
		t.Fatal("GetBookPrice should be available")
	}
	if !mid.Equal(decimal.RequireFromString("101")) {
		t.Errorf("GetBookPrice = %s, want 101", mid)
	}

	// The l2update refreshed the book observation time.
	clock.Advance(4 * time.Second)
	if _, ok := client.GetBookPrice(); !ok {
		t.Error("book feed should still be fresh after the diff refresh")
	}
}

func TestClient_RunDrivesDispatcher(t *testing.T) {
	client, _, _ := newTestClient(5*time.Second, 5*time.Second)

	frames := make(chan []byte, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Run(ctx, frames)

	frames <- []byte(`{"type":"ticker","product_id":"ETH-USD","price":"1850.25"}`)

	deadline := time.After(2 * time.Second)
	for {
		if price, ok := client.GetPrice(); ok {
			if !price.Equal(decimal.RequireFromString("1850.25")) {
				t.Errorf("GetPrice = %s, want 1850.25", price)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("ticker frame was not processed in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
