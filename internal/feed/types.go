package feed

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/book"
	"github.com/makerdao/gdax-client/internal/domain"
)

// GDAX level2 message type tags.
const (
	typeTicker        = "ticker"
	typeHeartbeat     = "heartbeat"
	typeSnapshot      = "snapshot"
	typeL2Update      = "l2update"
	typeSubscriptions = "subscriptions"
)

// gdaxMessage is the decoded superset of the frames the transport delivers.
// The type tag selects which fields are meaningful.
type gdaxMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`

	// ticker
	Price string `json:"price"`

	// snapshot: [price, size] pairs
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`

	// l2update: [side, price, size] tuples
	Changes [][]string `json:"changes"`
}

func (m *gdaxMessage) reset() {
	m.Type = ""
	m.ProductID = ""
	m.Price = ""
	m.Bids = nil
	m.Asks = nil
	m.Changes = nil
}

// bookDiff is one parsed l2update change tuple.
type bookDiff struct {
	kind     book.Kind
	price    decimal.Decimal
	quantity decimal.Decimal
}

// parseLevels converts snapshot [price, size] pairs into book levels.
// Quantity validation is left to the book side, which rejects non-positive
// snapshot quantities wholesale.
func parseLevels(pairs [][]string) ([]book.Level, error) {
	levels := make([]book.Level, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("pair %d has %d fields: %w", i, len(pair), domain.ErrMalformedMessage)
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("pair %d price %q: %w", i, pair[0], domain.ErrMalformedMessage)
		}
		quantity, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("pair %d size %q: %w", i, pair[1], domain.ErrMalformedMessage)
		}
		levels = append(levels, book.Level{Price: price, Quantity: quantity})
	}
	return levels, nil
}

// parseChanges converts l2update [side, price, size] tuples into book diffs.
// The whole message is rejected on the first malformed tuple so that decode
// failures stay side-effect free.
func parseChanges(changes [][]string) ([]bookDiff, error) {
	diffs := make([]bookDiff, 0, len(changes))
	for i, change := range changes {
		if len(change) != 3 {
			return nil, fmt.Errorf("change %d has %d fields: %w", i, len(change), domain.ErrMalformedMessage)
		}

		var kind book.Kind
		switch change[0] {
		case "buy":
			kind = book.Bid
		case "sell":
			kind = book.Ask
		default:
			return nil, fmt.Errorf("change %d side %q: %w", i, change[0], domain.ErrMalformedMessage)
		}

		price, err := decimal.NewFromString(change[1])
		if err != nil {
			return nil, fmt.Errorf("change %d price %q: %w", i, change[1], domain.ErrMalformedMessage)
		}
		quantity, err := decimal.NewFromString(change[2])
		if err != nil {
			return nil, fmt.Errorf("change %d size %q: %w", i, change[2], domain.ErrMalformedMessage)
		}
		if quantity.IsNegative() {
			return nil, fmt.Errorf("change %d size %s: %w", i, quantity, domain.ErrInvalidLevel)
		}

		diffs = append(diffs, bookDiff{kind: kind, price: price, quantity: quantity})
	}
	return diffs, nil
}
