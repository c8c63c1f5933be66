package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/book"
	"github.com/makerdao/gdax-client/internal/domain"
	"github.com/makerdao/gdax-client/internal/infra"
)

// Client is a market-data feed client for a single product. It owns the order
// book, the last trade quote and the two staleness gates, and exposes the two
// read operations used by a consuming strategy process.
//
// All writes originate from the single ingestion goroutine driving Run; reads
// may come from any number of caller goroutines. One mutex guards the whole
// state, so a reader can never observe a half-replaced book. Every operation
// completes in bounded time; nothing here blocks or suspends.
type Client struct {
	product string

	mu        sync.Mutex
	quote     domain.PriceQuote
	book      *book.Book
	tradeGate *StalenessGate
	bookGate  *StalenessGate
	tradeSeen time.Time // last ticker or heartbeat
	bookSeen  time.Time // last snapshot or l2update

	now     func() time.Time
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewClient creates a feed client for one product with per-feed staleness
// thresholds.
func NewClient(product string, tradeExpiry, bookExpiry time.Duration) *Client {
	return &Client{
		product:   product,
		book:      book.New(),
		tradeGate: NewStalenessGate(tradeExpiry),
		bookGate:  NewStalenessGate(bookExpiry),
		now:       time.Now,
		metrics:   infra.GlobalMetrics,
		logger:    slog.Default().With("module", "feed", "product", product),
	}
}

// Product returns the product id this client is subscribed to.
func (c *Client) Product() string {
	return c.product
}

// Run drives the dispatcher from the transport's frame channel. It is the
// single writer of the feed state and returns when ctx is cancelled.
func (c *Client) Run(ctx context.Context, frames <-chan []byte) {
	dispatcher := NewDispatcher(c)
	c.logger.Info("feed ingestion started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("feed ingestion stopped")
			return
		case raw := <-frames:
			dispatcher.Dispatch(raw)
		}
	}
}

// GetPrice returns the last traded price, or false when the trade feed is
// stale or no ticker has arrived yet. The fresh-to-stale transition is logged
// exactly once, not once per query.
func (c *Client) GetPrice() (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.tradeGate.Check(c.tradeSeen, now) == BecameStale {
		c.metrics.RecordStaleTransition()
		c.logger.Warn("price feed has expired")
	}
	if !c.tradeGate.IsFresh(c.tradeSeen, now) || c.quote.ObservedAt.IsZero() {
		return decimal.Decimal{}, false
	}
	return c.quote.Price, true
}

// GetBookPrice returns the current best-bid/best-ask midpoint, or false when
// the book feed is stale, the book never received a snapshot, or the book is
// one-sided.
func (c *Client) GetBookPrice() (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.bookGate.Check(c.bookSeen, now) == BecameStale {
		c.metrics.RecordStaleTransition()
		c.logger.Warn("order book feed has expired")
	}
	if !c.bookGate.IsFresh(c.bookSeen, now) {
		return decimal.Decimal{}, false
	}
	return c.book.Midpoint()
}

// BookInitialized reports whether a snapshot has ever been applied, letting a
// caller tell "never connected" apart from "connected but stale".
func (c *Client) BookInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.book.Initialized()
}

func (c *Client) applyTicker(price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.quote = domain.PriceQuote{Price: price, ObservedAt: now}
	c.tradeSeen = now
	c.logger.Debug("ticker", slog.String("price", price.String()))

	if c.tradeGate.Check(c.tradeSeen, now) == BecameFresh {
		c.logger.Info("price feed became available")
	}
}

// applyHeartbeat refreshes trade-feed freshness through silent periods with no
// trades. The quoted price itself is untouched.
func (c *Client) applyHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.tradeSeen = now

	if c.tradeGate.Check(c.tradeSeen, now) == BecameFresh {
		c.logger.Info("price feed became available")
	}
}

func (c *Client) applySnapshot(bids, asks []book.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	wasInitialized := c.book.Initialized()
	if err := c.book.ApplySnapshot(bids, asks, now); err != nil {
		return err
	}
	c.bookSeen = now

	if !wasInitialized {
		c.logger.Info("order book initialized",
			slog.Int("bids", c.book.Bids().Len()),
			slog.Int("asks", c.book.Asks().Len()))
	}
	if c.bookGate.Check(c.bookSeen, now) == BecameFresh {
		c.logger.Info("order book feed became available")
	}
	return nil
}

// applyDiffs applies all change tuples of one l2update message. Book-feed
// freshness is refreshed once per message, not once per change.
func (c *Client) applyDiffs(diffs []bookDiff) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.book.Initialized() {
		return domain.ErrBookNotReady
	}
	for _, diff := range diffs {
		if err := c.book.ApplyDiff(diff.kind, diff.price, diff.quantity, now); err != nil {
			return err
		}
	}
	c.bookSeen = now

	if c.bookGate.Check(c.bookSeen, now) == BecameFresh {
		c.logger.Info("order book feed became available")
	}
	return nil
}
