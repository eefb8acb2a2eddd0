package db

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// SQLiteDriverName is the database/sql driver registered by modernc.org/sqlite.
const SQLiteDriverName = "sqlite"

// OpenSQLite opens dsn through gorm's sqlite dialector backed by the pure-Go driver.
func OpenSQLite(dsn string, logg *logger.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: SQLiteDriverName,
		DSN:        dsn,
	}), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   NewGormLogger(logg.With("service", "SQLite"), time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	// One writer at a time; in-memory databases also vanish when their last connection closes.
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}
