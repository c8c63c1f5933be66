package app

import (
	"log/slog"
	"time"

	"github.com/makerdao/gdax-client/internal/domain"
	"github.com/makerdao/gdax-client/internal/infra"
	"github.com/makerdao/gdax-client/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize() error {
	slog.Info("Bootstrapping GDAX client...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized")

	// 4. Register the configured product
	if err := b.registerProduct(); err != nil {
		return err
	}
	slog.Info("Product registered", slog.String("product", cfg.Feed.ProductID))

	return nil
}

// registerProduct upserts the configured product into the registry, preserving
// any history from previous sessions.
func (b *Bootstrap) registerProduct() error {
	productID := b.Config.Feed.ProductID

	product := &domain.ProductInfo{
		ProductID:   productID,
		DisplayName: productID,
		IsActive:    true,
		UpdatedAt:   time.Now(),
	}

	if existing, _ := b.Storage.GetProduct(productID); existing != nil {
		product.DisplayName = existing.DisplayName
		product.LastConnectedAt = existing.LastConnectedAt
		product.CreatedAt = existing.CreatedAt
	}

	return b.Storage.UpsertProduct(product)
}
