package book

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/domain"
)

// pricePrecision is the number of fractional digits a price is quantized to
// before it is used as a book key. Matches the GDAX price grid.
const pricePrecision = 8

// Level is a single price level of the book.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// NormalizePrice quantizes a price to the fixed book precision. It is applied
// on both the snapshot and diff paths, so the same logical level can never be
// stored under two different keys.
func NormalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(pricePrecision)
}

func byPriceAscending(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

func byPriceDescending(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}

// Side is one side of the order book: an ordered map from price to quantity
// backed by a red-black tree. Asks sort ascending and bids descending, so the
// first key per the side's comparator is always the best level. The best level
// is cached and only recomputed from the tree when it is removed, keeping
// Best() at O(1) under heavy update rates.
type Side struct {
	levels  *treemap.Map
	compare utils.Comparator
	best    Level
	hasBest bool
}

// NewAskSide creates an empty ask side (best = lowest price).
func NewAskSide() *Side {
	return newSide(byPriceAscending)
}

// NewBidSide creates an empty bid side (best = highest price).
func NewBidSide() *Side {
	return newSide(byPriceDescending)
}

func newSide(compare utils.Comparator) *Side {
	return &Side{levels: treemap.NewWith(compare), compare: compare}
}

// Load bulk-replaces all levels from a snapshot. A level with a non-positive
// quantity fails the whole load and leaves the side untouched.
func (s *Side) Load(levels []Level) error {
	staged := treemap.NewWith(s.compare)
	for i, lv := range levels {
		if !lv.Quantity.IsPositive() {
			return fmt.Errorf("level %d (price=%s quantity=%s): %w",
				i, lv.Price, lv.Quantity, domain.ErrInvalidLevel)
		}
		staged.Put(NormalizePrice(lv.Price), lv.Quantity)
	}
	s.levels = staged
	s.refreshBest()
	return nil
}

// Apply inserts, overwrites or removes (quantity zero) a single level in
// O(log n). Removing an absent price is a no-op.
func (s *Side) Apply(price, quantity decimal.Decimal) {
	price = NormalizePrice(price)

	if quantity.IsZero() {
		if _, found := s.levels.Get(price); !found {
			return
		}
		s.levels.Remove(price)
		if s.hasBest && s.best.Price.Equal(price) {
			s.refreshBest()
		}
		return
	}

	s.levels.Put(price, quantity)
	if !s.hasBest || s.compare(price, s.best.Price) <= 0 {
		s.best = Level{Price: price, Quantity: quantity}
		s.hasBest = true
	}
}

// Best returns the top level per the side's sort direction.
func (s *Side) Best() (Level, bool) {
	if !s.hasBest {
		return Level{}, false
	}
	return s.best, true
}

// Len returns the number of stored levels.
func (s *Side) Len() int {
	return s.levels.Size()
}

func (s *Side) refreshBest() {
	key, value := s.levels.Min()
	if key == nil {
		s.best = Level{}
		s.hasBest = false
		return
	}
	s.best = Level{Price: key.(decimal.Decimal), Quantity: value.(decimal.Decimal)}
	s.hasBest = true
}
