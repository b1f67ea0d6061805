package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"stock_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface for data persistence
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
	if err := db.AutoMigrate(&domain.InstrumentInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "StockGo", "data", "stockgo.db"), nil
}

// ======================================================================================
// Instrument Operations
// ======================================================================================

// UpsertInstrument creates or updates instrument catalog metadata
func (s *Storage) UpsertInstrument(inst *domain.InstrumentInfo) error {
	return s.db.Save(inst).Error
}

// GetInstrument retrieves instrument metadata by symbol
func (s *Storage) GetInstrument(symbol string) (*domain.InstrumentInfo, error) {
	var inst domain.InstrumentInfo
	err := s.db.First(&inst, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &inst, err
}

// ListInstruments retrieves all instruments in the catalog
func (s *Storage) ListInstruments() ([]domain.InstrumentInfo, error) {
	var insts []domain.InstrumentInfo
	err := s.db.Find(&insts).Error
	return insts, err
}

// ListActiveInstruments retrieves instruments included in batch runs
func (s *Storage) ListActiveInstruments() ([]domain.InstrumentInfo, error) {
	var insts []domain.InstrumentInfo
	err := s.db.Where("is_active = ?", true).Find(&insts).Error
	return insts, err
}

// ToggleActive toggles whether an instrument participates in batch runs
func (s *Storage) ToggleActive(symbol string) (bool, error) {
	var inst domain.InstrumentInfo
	if err := s.db.First(&inst, "symbol = ?", symbol).Error; err != nil {
		return false, err
	}

	inst.IsActive = !inst.IsActive
	err := s.db.Save(&inst).Error
	return inst.IsActive, err
}

// MarkFetched records the time of the last successful history fetch
func (s *Storage) MarkFetched(symbol string, at time.Time) error {
	return s.db.Model(&domain.InstrumentInfo{}).
		Where("symbol = ?", symbol).
		Update("last_fetched_at", at).Error
}

// DeleteInstrument deletes an instrument from the catalog
func (s *Storage) DeleteInstrument(symbol string) error {
	return s.db.Where("symbol = ?", symbol).Delete(&domain.InstrumentInfo{}).Error
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
