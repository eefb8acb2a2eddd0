package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/store"
	apphttp "github.com/yungbote/storefront-backend/internal/http"
	httpH "github.com/yungbote/storefront-backend/internal/http/handlers"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type Handlers struct {
	Resources    []apphttp.Registrar
	Relationship *httpH.RelationshipHandler
	Association  *httpH.AssociationHandler
	Changes      *httpH.ChangeHandler
	Health       *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, aggs Aggregates) Handlers {
	log.Info("Wiring handlers...")
	paging := cfg.Paging
	return Handlers{
		Resources: []apphttp.Registrar{
			httpH.NewResourceHandler(httpH.ResourceHandlerDeps[store.ProductCategory]{
				Log: log, Aggregate: aggs.ProductCategory, Entity: store.EntityProductCategory, Path: "categories", Paging: paging,
			}),
			httpH.NewResourceHandler(httpH.ResourceHandlerDeps[store.Product]{
				Log: log, Aggregate: aggs.Product, Entity: store.EntityProduct, Path: "products", Paging: paging,
			}),
			httpH.NewResourceHandler(httpH.ResourceHandlerDeps[store.CustomerDetails]{
				Log: log, Aggregate: aggs.CustomerDetails, Entity: store.EntityCustomerDetails, Path: "customer-details", Paging: paging,
			}),
			httpH.NewResourceHandler(httpH.ResourceHandlerDeps[store.ShoppingCart]{
				Log: log, Aggregate: aggs.ShoppingCart, Entity: store.EntityShoppingCart, Path: "shopping-carts", Paging: paging,
			}),
			httpH.NewResourceHandler(httpH.ResourceHandlerDeps[store.ProductOrder]{
				Log: log, Aggregate: aggs.ProductOrder, Entity: store.EntityProductOrder, Path: "product-orders", Paging: paging,
			}),
		},
		Relationship: httpH.NewRelationshipHandler(log, aggs.Relationships,
			httpH.ChildSet{Parent: store.EntityProductCategory, ParentPath: "categories", Relation: "products"},
			httpH.ChildSet{Parent: store.EntityCustomerDetails, ParentPath: "customer-details", Relation: "shopping-carts"},
			httpH.ChildSet{Parent: store.EntityShoppingCart, ParentPath: "shopping-carts", Relation: "product-orders"},
		),
		Association: httpH.NewAssociationHandler(log, aggs.Relationships,
			httpH.Owner{Entity: store.EntityProduct, Path: "products"},
			httpH.Owner{Entity: store.EntityShoppingCart, Path: "shopping-carts"},
			httpH.Owner{Entity: store.EntityProductOrder, Path: "product-orders"},
		),
		Changes: httpH.NewChangeHandler(log, r.Change, paging),
		Health:  httpH.NewHealthHandler(db),
	}
}

func routerConfig(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) apphttp.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RequestTimeout: cfg.RequestTimeout,
		Resources:      h.Resources,
		Relationship:   h.Relationship,
		Association:    h.Association,
		Changes:        h.Changes,
		HealthHandler:  h.Health,
	}
}
