package aggregates_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/storefront-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/storefront-backend/internal/data/patch"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	repotest "github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/pointers"
)

type fixture struct {
	db      *gorm.DB
	hooks   *aggtest.HooksRecorder
	runner  *aggtest.InjectedTxRunner
	cache   *mapCache
	changes repos.ChangeRepo

	categories domainagg.EntityAggregate[store.ProductCategory, patch.Patch[store.ProductCategory]]
	products   domainagg.EntityAggregate[store.Product, patch.Patch[store.Product]]
	customers  domainagg.EntityAggregate[store.CustomerDetails, patch.Patch[store.CustomerDetails]]
	carts      domainagg.EntityAggregate[store.ShoppingCart, patch.Patch[store.ShoppingCart]]
	orders     domainagg.EntityAggregate[store.ProductOrder, patch.Patch[store.ProductOrder]]
	rel        domainagg.RelationshipAggregate
}

func newFixture(t *testing.T, policy domainagg.DeletePolicy) *fixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	f := &fixture{
		db:      db,
		hooks:   &aggtest.HooksRecorder{},
		runner:  &aggtest.InjectedTxRunner{DB: db},
		cache:   newMapCache(),
		changes: repos.NewChangeRepo(db, log),
	}
	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   f.runner,
		Hooks:    f.hooks,
		CASGuard: aggregates.NewCASGuard(db),
		Changes:  f.changes,
		Cache:    f.cache,
	}

	categoryRepo, err := repos.NewProductCategoryRepo(db, log)
	must(t, err)
	productRepo, err := repos.NewProductRepo(db, log)
	must(t, err)
	customerRepo, err := repos.NewCustomerDetailsRepo(db, log)
	must(t, err)
	cartRepo, err := repos.NewShoppingCartRepo(db, log)
	must(t, err)
	orderRepo, err := repos.NewProductOrderRepo(db, log)
	must(t, err)

	f.categories = aggregates.NewEntityAggregate[store.ProductCategory](aggregates.EntityAggregateDeps[store.ProductCategory]{
		Base: base, Entity: store.EntityProductCategory, Repo: categoryRepo, Policy: policy,
	})
	f.products = aggregates.NewEntityAggregate[store.Product](aggregates.EntityAggregateDeps[store.Product]{
		Base: base, Entity: store.EntityProduct, Repo: productRepo, Policy: policy,
	})
	f.customers = aggregates.NewEntityAggregate[store.CustomerDetails](aggregates.EntityAggregateDeps[store.CustomerDetails]{
		Base: base, Entity: store.EntityCustomerDetails, Repo: customerRepo, Policy: policy,
	})
	f.carts = aggregates.NewEntityAggregate[store.ShoppingCart](aggregates.EntityAggregateDeps[store.ShoppingCart]{
		Base: base, Entity: store.EntityShoppingCart, Repo: cartRepo, Policy: policy,
	})
	f.orders = aggregates.NewEntityAggregate[store.ProductOrder](aggregates.EntityAggregateDeps[store.ProductOrder]{
		Base: base, Entity: store.EntityProductOrder, Repo: orderRepo, Policy: policy,
	})
	f.rel = aggregates.NewRelationshipAggregate(aggregates.RelationshipAggregateDeps{Base: base})
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func (f *fixture) customer(t *testing.T, phone string) *store.CustomerDetails {
	t.Helper()
	c, err := f.customers.Create(context.Background(), &store.CustomerDetails{
		Phone:   pointers.String(phone),
		City:    pointers.String("Springfield"),
		Country: pointers.String("US"),
	})
	must(t, err)
	return c
}

func newCart(customerID uuid.UUID) *store.ShoppingCart {
	status := store.OrderStatusPaid
	method := store.PaymentMethodCreditCard
	return &store.ShoppingCart{
		PlacedDate:        pointers.Time(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Status:            &status,
		TotalPrice:        pointers.Decimal("50.00"),
		PaymentMethod:     &method,
		PaymentReference:  pointers.String("OLD123"),
		CustomerDetailsID: pointers.UUID(customerID),
	}
}

func (f *fixture) cart(t *testing.T, customerID uuid.UUID) *store.ShoppingCart {
	t.Helper()
	c, err := f.carts.Create(context.Background(), newCart(customerID))
	must(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name string, categoryID *uuid.UUID) *store.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), &store.Product{
		Name:       pointers.String(name),
		Price:      pointers.Decimal("9.99"),
		CategoryID: categoryID,
	})
	must(t, err)
	return p
}

func (f *fixture) order(t *testing.T, productID, cartID uuid.UUID) *store.ProductOrder {
	t.Helper()
	o, err := f.orders.Create(context.Background(), &store.ProductOrder{
		Quantity:   pointers.Int(2),
		TotalPrice: pointers.Decimal("19.98"),
		ProductID:  pointers.UUID(productID),
		CartID:     pointers.UUID(cartID),
	})
	must(t, err)
	return o
}

func (f *fixture) cartChildren(t *testing.T, customerID uuid.UUID) []uuid.UUID {
	t.Helper()
	ids, err := f.rel.Children(context.Background(), store.EntityCustomerDetails, customerID, "shopping-carts")
	must(t, err)
	return ids
}

// mapCache is an in-process aggregates.Cache that records invalidations.
// beforeSet, when set, runs inside Set ahead of the stamp check.
type mapCache struct {
	mu        sync.Mutex
	entries   map[string]any
	stamps    map[string]int64
	deleted   map[string]int
	beforeSet func()
}

var _ aggregates.Cache = (*mapCache)(nil)

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]any{}, stamps: map[string]int64{}, deleted: map[string]int{}}
}

func cacheKey(entity string, id uuid.UUID) string { return entity + ":" + id.String() }

func (c *mapCache) Get(_ context.Context, entity string, id uuid.UUID, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(entity, id)]
	if !ok {
		return false
	}
	switch d := dst.(type) {
	case *store.ShoppingCart:
		*d = *(v.(*store.ShoppingCart))
	case *store.CustomerDetails:
		*d = *(v.(*store.CustomerDetails))
	default:
		return false
	}
	return true
}

func (c *mapCache) Stamp(_ context.Context, entity string, id uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stamps[cacheKey(entity, id)]
}

func (c *mapCache) Set(_ context.Context, entity string, id uuid.UUID, v any, stamp int64) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stamps[cacheKey(entity, id)] != stamp {
		return
	}
	c.entries[cacheKey(entity, id)] = v
}

func (c *mapCache) Delete(_ context.Context, entity string, ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, cacheKey(entity, id))
		c.stamps[cacheKey(entity, id)]++
		c.deleted[cacheKey(entity, id)]++
	}
}

func (c *mapCache) has(entity string, id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[cacheKey(entity, id)]
	return ok
}
