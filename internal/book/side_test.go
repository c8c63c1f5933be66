package book

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/domain"
)

func level(price, qty string) Level {
	return Level{
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	}
}

func TestSide_BestTracksExtremalPrice(t *testing.T) {
	asks := NewAskSide()
	bids := NewBidSide()

	prices := []string{"101.5", "100.25", "103", "100.5", "102"}
	for _, p := range prices {
		asks.Apply(decimal.RequireFromString(p), decimal.NewFromInt(1))
		bids.Apply(decimal.RequireFromString(p), decimal.NewFromInt(1))
	}

	best, ok := asks.Best()
	if !ok {
		t.Fatal("ask side should have a best level")
	}
	if !best.Price.Equal(decimal.RequireFromString("100.25")) {
		t.Errorf("best ask = %s, want 100.25", best.Price)
	}

	best, ok = bids.Best()
	if !ok {
		t.Fatal("bid side should have a best level")
	}
	if !best.Price.Equal(decimal.RequireFromString("103")) {
		t.Errorf("best bid = %s, want 103", best.Price)
	}
}

func TestSide_ZeroQuantityRemoves(t *testing.T) {
	asks := NewAskSide()
	asks.Apply(decimal.RequireFromString("100"), decimal.NewFromInt(2))
	asks.Apply(decimal.RequireFromString("101"), decimal.NewFromInt(1))

	// Removing the best ask exposes the next level.
	asks.Apply(decimal.RequireFromString("100"), decimal.Zero)

	best, ok := asks.Best()
	if !ok {
		t.Fatal("side should not be empty")
	}
	if !best.Price.Equal(decimal.RequireFromString("101")) {
		t.Errorf("best ask after removal = %s, want 101", best.Price)
	}
	if asks.Len() != 1 {
		t.Errorf("Len = %d, want 1", asks.Len())
	}

	// Removing an absent price is a no-op.
	asks.Apply(decimal.RequireFromString("999"), decimal.Zero)
	if asks.Len() != 1 {
		t.Errorf("Len after no-op removal = %d, want 1", asks.Len())
	}
}

func TestSide_ApplyOverwritesQuantity(t *testing.T) {
	bids := NewBidSide()
	bids.Apply(decimal.RequireFromString("250"), decimal.NewFromInt(1))
	bids.Apply(decimal.RequireFromString("250"), decimal.NewFromInt(7))

	if bids.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bids.Len())
	}
	best, _ := bids.Best()
	if !best.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("best quantity = %s, want 7", best.Quantity)
	}
}

func TestSide_LoadRejectsNonPositiveQuantity(t *testing.T) {
	cases := []struct {
		name string
		qty  string
	}{
		{"zero quantity", "0"},
		{"negative quantity", "-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asks := NewAskSide()
			asks.Apply(decimal.RequireFromString("50"), decimal.NewFromInt(1))

			err := asks.Load([]Level{level("100", "1"), level("101", tc.qty)})
			if !errors.Is(err, domain.ErrInvalidLevel) {
				t.Fatalf("Load error = %v, want ErrInvalidLevel", err)
			}

			// Rejected load must leave the side untouched.
			best, ok := asks.Best()
			if !ok || !best.Price.Equal(decimal.RequireFromString("50")) {
				t.Errorf("side modified by rejected load: best=%v ok=%v", best, ok)
			}
		})
	}
}

func TestSide_NormalizationUnifiesDiffAndSnapshotKeys(t *testing.T) {
	bids := NewBidSide()
	if err := bids.Load([]Level{level("100.000000001", "1")}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// The same logical level with sub-precision noise must hit the same key.
	bids.Apply(decimal.RequireFromString("100.000000004"), decimal.NewFromInt(3))

	if bids.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (diff landed on a second key)", bids.Len())
	}
	best, _ := bids.Best()
	if !best.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("best quantity = %s, want 3", best.Quantity)
	}

	// And a zero-quantity diff at the noisy price must remove it.
	bids.Apply(decimal.RequireFromString("100.0000000009"), decimal.Zero)
	if bids.Len() != 0 {
		t.Errorf("Len = %d, want 0", bids.Len())
	}
}

func TestSide_DrainYieldsSortedLevels(t *testing.T) {
	levels := []Level{
		level("104", "1"), level("100", "2"), level("107", "3"),
		level("101", "4"), level("105.5", "5"),
	}

	t.Run("asks ascending", func(t *testing.T) {
		asks := NewAskSide()
		if err := asks.Load(levels); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		drained := drain(asks)
		if len(drained) != len(levels) {
			t.Fatalf("drained %d levels, want %d", len(drained), len(levels))
		}
		for i := 1; i < len(drained); i++ {
			if drained[i].Price.LessThanOrEqual(drained[i-1].Price) {
				t.Fatalf("asks not strictly ascending at %d: %s after %s",
					i, drained[i].Price, drained[i-1].Price)
			}
		}
	})

	t.Run("bids descending", func(t *testing.T) {
		bids := NewBidSide()
		if err := bids.Load(levels); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		drained := drain(bids)
		if len(drained) != len(levels) {
			t.Fatalf("drained %d levels, want %d", len(drained), len(levels))
		}
		for i := 1; i < len(drained); i++ {
			if drained[i].Price.GreaterThanOrEqual(drained[i-1].Price) {
				t.Fatalf("bids not strictly descending at %d: %s after %s",
					i, drained[i].Price, drained[i-1].Price)
			}
		}
	})
}

// drain repeatedly pops the best level until the side is empty.
func drain(s *Side) []Level {
	var out []Level
	for s.Len() > 0 {
		best, ok := s.Best()
		if !ok {
			break
		}
		out = append(out, best)
		s.Apply(best.Price, decimal.Zero)
	}
	return out
}
