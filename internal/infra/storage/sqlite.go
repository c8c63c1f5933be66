package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/makerdao/gdax-client/internal/domain"
)

// Storage persists product metadata and application key-value settings. The
// live book and quote are deliberately kept in memory only.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.ProductInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path
func getDBPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "GdaxClient", "data", "gdax-client.db"), nil
}

// ======================================================================================
// Product Operations
// ======================================================================================

// UpsertProduct creates or updates product metadata
func (s *Storage) UpsertProduct(product *domain.ProductInfo) error {
	return s.db.Save(product).Error
}

// GetProduct retrieves product metadata by product id
func (s *Storage) GetProduct(productID string) (*domain.ProductInfo, error) {
	var product domain.ProductInfo
	err := s.db.First(&product, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &product, err
}

// GetAllProducts retrieves all known products
func (s *Storage) GetAllProducts() ([]domain.ProductInfo, error) {
	var products []domain.ProductInfo
	err := s.db.Find(&products).Error
	return products, err
}

// TouchConnected records a successful websocket connect for a product
func (s *Storage) TouchConnected(productID string, at time.Time) error {
	var product domain.ProductInfo
	if err := s.db.First(&product, "product_id = ?", productID).Error; err != nil {
		return err
	}

	product.LastConnectedAt = at
	return s.db.Save(&product).Error
}

// DeleteProduct deletes a product from the database
func (s *Storage) DeleteProduct(productID string) error {
	return s.db.Where("product_id = ?", productID).Delete(&domain.ProductInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all user configurations as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
