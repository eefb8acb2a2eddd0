package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/pointers"
)

func create(tb testing.TB, ctx context.Context, tx *gorm.DB, what string, row any) {
	tb.Helper()
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		tb.Fatalf("seed %s: %v", what, err)
	}
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *store.ProductCategory {
	tb.Helper()
	c := &store.ProductCategory{
		Base: store.Base{ID: uuid.New()},
		Name: pointers.String(name),
	}
	create(tb, ctx, tx, "category", c)
	return c
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, categoryID *uuid.UUID) *store.Product {
	tb.Helper()
	p := &store.Product{
		Base:       store.Base{ID: uuid.New()},
		Name:       pointers.String(name),
		Price:      pointers.Decimal("9.99"),
		CategoryID: categoryID,
	}
	create(tb, ctx, tx, "product", p)
	return p
}

func SeedCustomer(tb testing.TB, ctx context.Context, tx *gorm.DB, phone string) *store.CustomerDetails {
	tb.Helper()
	c := &store.CustomerDetails{
		Base:    store.Base{ID: uuid.New()},
		Phone:   pointers.String(phone),
		City:    pointers.String("Springfield"),
		Country: pointers.String("US"),
	}
	create(tb, ctx, tx, "customer", c)
	return c
}

func SeedCart(tb testing.TB, ctx context.Context, tx *gorm.DB, customerID uuid.UUID) *store.ShoppingCart {
	tb.Helper()
	status := store.OrderStatusPending
	method := store.PaymentMethodCreditCard
	c := &store.ShoppingCart{
		Base:              store.Base{ID: uuid.New()},
		PlacedDate:        pointers.Time(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Status:            &status,
		TotalPrice:        pointers.Decimal("50.00"),
		PaymentMethod:     &method,
		CustomerDetailsID: pointers.UUID(customerID),
	}
	create(tb, ctx, tx, "cart", c)
	return c
}

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, productID, cartID uuid.UUID) *store.ProductOrder {
	tb.Helper()
	o := &store.ProductOrder{
		Base:       store.Base{ID: uuid.New()},
		Quantity:   pointers.Int(1),
		TotalPrice: pointers.Decimal("9.99"),
		ProductID:  pointers.UUID(productID),
		CartID:     pointers.UUID(cartID),
	}
	create(tb, ctx, tx, "order", o)
	return o
}
