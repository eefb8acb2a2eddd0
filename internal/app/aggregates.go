package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/aggregates"
	"github.com/yungbote/storefront-backend/internal/data/patch"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type Aggregates struct {
	ProductCategory domainagg.EntityAggregate[store.ProductCategory, patch.Patch[store.ProductCategory]]
	Product         domainagg.EntityAggregate[store.Product, patch.Patch[store.Product]]
	CustomerDetails domainagg.EntityAggregate[store.CustomerDetails, patch.Patch[store.CustomerDetails]]
	ShoppingCart    domainagg.EntityAggregate[store.ShoppingCart, patch.Patch[store.ShoppingCart]]
	ProductOrder    domainagg.EntityAggregate[store.ProductOrder, patch.Patch[store.ProductOrder]]
	Relationships   domainagg.RelationshipAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics, cache aggregates.Cache) (Aggregates, error) {
	log.Info("Wiring aggregates...", "delete_policy", cfg.DeletePolicy)
	base := aggregates.BaseDeps{
		DB:      db,
		Log:     log,
		Hooks:   aggregates.NewObservabilityHooks(metrics),
		Changes: r.Change,
		Cache:   cache,
	}
	aggs := Aggregates{
		ProductCategory: aggregates.NewEntityAggregate[store.ProductCategory](aggregates.EntityAggregateDeps[store.ProductCategory]{
			Base: base, Entity: store.EntityProductCategory, Repo: r.ProductCategory, Policy: cfg.DeletePolicy,
		}),
		Product: aggregates.NewEntityAggregate[store.Product](aggregates.EntityAggregateDeps[store.Product]{
			Base: base, Entity: store.EntityProduct, Repo: r.Product, Policy: cfg.DeletePolicy,
		}),
		CustomerDetails: aggregates.NewEntityAggregate[store.CustomerDetails](aggregates.EntityAggregateDeps[store.CustomerDetails]{
			Base: base, Entity: store.EntityCustomerDetails, Repo: r.CustomerDetails, Policy: cfg.DeletePolicy,
		}),
		ShoppingCart: aggregates.NewEntityAggregate[store.ShoppingCart](aggregates.EntityAggregateDeps[store.ShoppingCart]{
			Base: base, Entity: store.EntityShoppingCart, Repo: r.ShoppingCart, Policy: cfg.DeletePolicy,
		}),
		ProductOrder: aggregates.NewEntityAggregate[store.ProductOrder](aggregates.EntityAggregateDeps[store.ProductOrder]{
			Base: base, Entity: store.EntityProductOrder, Repo: r.ProductOrder, Policy: cfg.DeletePolicy,
		}),
		Relationships: aggregates.NewRelationshipAggregate(aggregates.RelationshipAggregateDeps{Base: base}),
	}
	for _, agg := range aggs.all() {
		c := agg.Contract()
		if !c.RequiresAggregateOwnedTx() {
			return Aggregates{}, fmt.Errorf("aggregate %s must own its write transactions", c.Name)
		}
		log.Debug("Aggregate wired", "aggregate", c.Name, "read_policy", c.ReadPolicy)
	}
	return aggs, nil
}

func (a Aggregates) all() []domainagg.Aggregate {
	return []domainagg.Aggregate{
		a.ProductCategory,
		a.Product,
		a.CustomerDetails,
		a.ShoppingCart,
		a.ProductOrder,
		a.Relationships,
	}
}
