package book

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/domain"
)

var two = decimal.NewFromInt(2)

// Kind selects a book side.
type Kind int

const (
	Bid Kind = iota
	Ask
)

func (k Kind) String() string {
	if k == Bid {
		return "bid"
	}
	return "ask"
}

// Book is a two-sided order book rebuilt from one snapshot plus incremental
// diffs. A book that never received a snapshot reports itself as uninitialized
// so callers can tell "no data yet" apart from an empty book.
//
// Book is not safe for concurrent use; the owning feed client serializes all
// access behind its lock.
type Book struct {
	bids        *Side
	asks        *Side
	lastUpdate  time.Time
	initialized bool
}

// New creates an uninitialized book.
func New() *Book {
	return &Book{bids: NewBidSide(), asks: NewAskSide()}
}

// ApplySnapshot replaces both sides wholesale. Both sides are staged before
// either is swapped in, so a malformed snapshot leaves the previous book
// intact.
func (b *Book) ApplySnapshot(bids, asks []Level, now time.Time) error {
	stagedBids := NewBidSide()
	if err := stagedBids.Load(bids); err != nil {
		return fmt.Errorf("bids: %w", err)
	}
	stagedAsks := NewAskSide()
	if err := stagedAsks.Load(asks); err != nil {
		return fmt.Errorf("asks: %w", err)
	}

	b.bids = stagedBids
	b.asks = stagedAsks
	b.lastUpdate = now
	b.initialized = true
	return nil
}

// ApplyDiff applies one incremental change to the selected side. A diff that
// races ahead of the first snapshot is reported as ErrBookNotReady; the caller
// tolerates it, since the transport does not order snapshots against diffs.
func (b *Book) ApplyDiff(kind Kind, price, quantity decimal.Decimal, now time.Time) error {
	if !b.initialized {
		return domain.ErrBookNotReady
	}
	if quantity.IsNegative() {
		return fmt.Errorf("%s diff (price=%s quantity=%s): %w", kind, price, quantity, domain.ErrInvalidLevel)
	}

	if kind == Bid {
		b.bids.Apply(price, quantity)
	} else {
		b.asks.Apply(price, quantity)
	}
	b.lastUpdate = now
	return nil
}

// Midpoint returns the average of the best bid and best ask in exact decimal
// arithmetic, or false when the book is uninitialized or one-sided.
func (b *Book) Midpoint() (decimal.Decimal, bool) {
	if !b.initialized {
		return decimal.Decimal{}, false
	}
	bid, ok := b.bids.Best()
	if !ok {
		return decimal.Decimal{}, false
	}
	ask, ok := b.asks.Best()
	if !ok {
		return decimal.Decimal{}, false
	}
	return bid.Price.Add(ask.Price).Div(two), true
}

// Bids returns the bid side.
func (b *Book) Bids() *Side {
	return b.bids
}

// Asks returns the ask side.
func (b *Book) Asks() *Side {
	return b.asks
}

// Initialized reports whether a snapshot has ever been applied.
func (b *Book) Initialized() bool {
	return b.initialized
}

// LastUpdate returns the time of the most recent snapshot or diff.
func (b *Book) LastUpdate() time.Time {
	return b.lastUpdate
}
