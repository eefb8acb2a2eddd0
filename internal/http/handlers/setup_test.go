package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/data/aggregates"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	repotest "github.com/yungbote/storefront-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/http/handlers"
)

type server struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T, policy domainagg.DeletePolicy) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	log := repotest.Logger(t)
	changes := repos.NewChangeRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log, Changes: changes}
	paging := handlers.PageConfig{DefaultSize: 2, MaxSize: 5}

	categoryRepo, err := repos.NewProductCategoryRepo(db, log)
	require.NoError(t, err)
	productRepo, err := repos.NewProductRepo(db, log)
	require.NoError(t, err)
	customerRepo, err := repos.NewCustomerDetailsRepo(db, log)
	require.NoError(t, err)
	cartRepo, err := repos.NewShoppingCartRepo(db, log)
	require.NoError(t, err)
	orderRepo, err := repos.NewProductOrderRepo(db, log)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	handlers.NewResourceHandler(handlers.ResourceHandlerDeps[store.ProductCategory]{
		Log: log, Entity: store.EntityProductCategory, Path: "categories", Paging: paging,
		Aggregate: aggregates.NewEntityAggregate[store.ProductCategory](aggregates.EntityAggregateDeps[store.ProductCategory]{
			Base: base, Entity: store.EntityProductCategory, Repo: categoryRepo, Policy: policy,
		}),
	}).Register(api)
	handlers.NewResourceHandler(handlers.ResourceHandlerDeps[store.Product]{
		Log: log, Entity: store.EntityProduct, Path: "products", Paging: paging,
		Aggregate: aggregates.NewEntityAggregate[store.Product](aggregates.EntityAggregateDeps[store.Product]{
			Base: base, Entity: store.EntityProduct, Repo: productRepo, Policy: policy,
		}),
	}).Register(api)
	handlers.NewResourceHandler(handlers.ResourceHandlerDeps[store.CustomerDetails]{
		Log: log, Entity: store.EntityCustomerDetails, Path: "customer-details", Paging: paging,
		Aggregate: aggregates.NewEntityAggregate[store.CustomerDetails](aggregates.EntityAggregateDeps[store.CustomerDetails]{
			Base: base, Entity: store.EntityCustomerDetails, Repo: customerRepo, Policy: policy,
		}),
	}).Register(api)
	handlers.NewResourceHandler(handlers.ResourceHandlerDeps[store.ShoppingCart]{
		Log: log, Entity: store.EntityShoppingCart, Path: "shopping-carts", Paging: paging,
		Aggregate: aggregates.NewEntityAggregate[store.ShoppingCart](aggregates.EntityAggregateDeps[store.ShoppingCart]{
			Base: base, Entity: store.EntityShoppingCart, Repo: cartRepo, Policy: policy,
		}),
	}).Register(api)
	handlers.NewResourceHandler(handlers.ResourceHandlerDeps[store.ProductOrder]{
		Log: log, Entity: store.EntityProductOrder, Path: "product-orders", Paging: paging,
		Aggregate: aggregates.NewEntityAggregate[store.ProductOrder](aggregates.EntityAggregateDeps[store.ProductOrder]{
			Base: base, Entity: store.EntityProductOrder, Repo: orderRepo, Policy: policy,
		}),
	}).Register(api)

	rel := aggregates.NewRelationshipAggregate(aggregates.RelationshipAggregateDeps{Base: base})
	handlers.NewRelationshipHandler(log, rel,
		handlers.ChildSet{Parent: store.EntityProductCategory, ParentPath: "categories", Relation: "products"},
		handlers.ChildSet{Parent: store.EntityCustomerDetails, ParentPath: "customer-details", Relation: "shopping-carts"},
		handlers.ChildSet{Parent: store.EntityShoppingCart, ParentPath: "shopping-carts", Relation: "product-orders"},
	).Register(api)
	handlers.NewAssociationHandler(log, rel,
		handlers.Owner{Entity: store.EntityProduct, Path: "products"},
		handlers.Owner{Entity: store.EntityShoppingCart, Path: "shopping-carts"},
		handlers.Owner{Entity: store.EntityProductOrder, Path: "product-orders"},
	).Register(api)
	api.GET("/changes", handlers.NewChangeHandler(log, changes, paging).List)
	r.GET("/healthcheck", handlers.NewHealthHandler(db).HealthCheck)
	r.GET("/readyz", handlers.NewHealthHandler(db).Ready)

	return &server{t: t, engine: r}
}

func (s *server) do(method, target string, body any, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoErrorf(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func (s *server) createCustomer(phone string) store.CustomerDetails {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/customer-details", map[string]any{
		"phone": phone, "city": "Springfield", "country": "US",
	})
	require.Equalf(s.t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeInto[store.CustomerDetails](s.t, rec)
}

func cartBody(customerID any) map[string]any {
	return map[string]any{
		"placedDate":        "2024-03-01T12:00:00Z",
		"status":            "PAID",
		"totalPrice":        "50.00",
		"paymentMethod":     "CREDIT_CARD",
		"paymentReference":  "OLD123",
		"customerDetailsId": customerID,
	}
}

func (s *server) createCart(customerID any) store.ShoppingCart {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/shopping-carts", cartBody(customerID))
	require.Equalf(s.t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeInto[store.ShoppingCart](s.t, rec)
}

func (s *server) createProduct(name string) store.Product {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/products", map[string]any{"name": name, "price": "9.99", "productSize": "M"})
	require.Equalf(s.t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeInto[store.Product](s.t, rec)
}

func (s *server) createOrder(productID, cartID any) store.ProductOrder {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/product-orders", map[string]any{
		"quantity": 2, "totalPrice": "19.98", "productId": productID, "cartId": cartID,
	})
	require.Equalf(s.t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeInto[store.ProductOrder](s.t, rec)
}
