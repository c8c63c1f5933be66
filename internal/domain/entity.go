package domain

import (
	"time"
)

// ProductInfo represents metadata for a subscribed product (trading pair)
type ProductInfo struct {
	ProductID       string    `gorm:"primaryKey" json:"product_id"` // e.g., "ETH-USD"
	DisplayName     string    `json:"display_name"`
	IsActive        bool      `json:"is_active" gorm:"index"` // Active subscription status
	LastConnectedAt time.Time `json:"last_connected_at"`      // Last successful websocket connect
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
