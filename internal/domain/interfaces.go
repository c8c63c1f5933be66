package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// FeedWorker defines the interface for exchange WebSocket connectors
type FeedWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// PriceSource is the read surface exposed to a consuming strategy process.
// Both accessors return the value and true, or the zero decimal and false when
// no fresh value is available.
type PriceSource interface {
	GetPrice() (decimal.Decimal, bool)
	GetBookPrice() (decimal.Decimal, bool)
}

// ProductRepository defines how to access product metadata
type ProductRepository interface {
	UpsertProduct(product *ProductInfo) error
	GetProduct(productID string) (*ProductInfo, error)
}
