package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/store"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Catalog
		&store.ProductCategory{},
		&store.Product{},

		// Customers + orders
		&store.CustomerDetails{},
		&store.ShoppingCart{},
		&store.ProductOrder{},

		// Audit
		&store.Change{},
	)
}

// Migrate runs AutoMigrateAll on an arbitrary connection, wrapping the failure.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
