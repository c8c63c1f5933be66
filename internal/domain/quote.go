package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is the last traded price reported by the feed.
// It is overwritten on every ticker message; no history is kept.
type PriceQuote struct {
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}
