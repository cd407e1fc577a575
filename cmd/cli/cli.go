// Package cli groups the operator-facing Cobra commands. They talk to the
// SQLite backend directly; the in-memory driver only lives inside a
// running server process.
package cli

import (
	"fmt"

	"github.com/dobprotocol/doblink/internal/config"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// openDatabase opens the configured SQLite file and runs migrations so
// commands work on a fresh checkout.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.LiquidityPool{}, &models.TokenMetric{}, &models.Widget{}, &models.AnalyticsEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
