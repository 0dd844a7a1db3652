package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	Postgres   PostgresConfig
	SQLitePath string
}

// Open connects to the configured driver.
func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		pg, err := NewPostgresService(log, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return pg.DB(), nil
	case DriverSQLite:
		lite, err := NewSQLiteService(log, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return lite.DB(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (allowed: %q, %q)", cfg.Driver, DriverPostgres, DriverSQLite)
	}
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
