package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/http/handlers"
)

func TestLinkUnlinkScenario(t *testing.T) {
	s := newServer(t, domainagg.DeleteDenyReferenced)
	placeholder := s.createCustomer("555-0000")
	cust := s.createCustomer("555-0100")
	cart := s.createCart(placeholder.ID)
	carts := "/api/customer-details/" + cust.ID.String() + "/shopping-carts"

	rec := s.do(http.MethodPut, carts+"/"+cart.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{cart.ID}, decodeInto[[]uuid.UUID](t, rec))

	rec = s.do(http.MethodGet, "/api/shopping-carts/"+cart.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cust.ID, *decodeInto[store.ShoppingCart](t, rec).CustomerDetailsID)

	rec = s.do(http.MethodDelete, carts+"/"+cart.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, carts, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeInto[[]uuid.UUID](t, rec))

	rec = s.do(http.MethodGet, "/api/shopping-carts/"+cart.ID.String(), nil)
	assert.Nil(t, decodeInto[store.ShoppingCart](t, rec).CustomerDetailsID)
}

func TestReplaceChildrenEndpoint(t *testing.T) {
	s := newServer(t, domainagg.DeleteDenyReferenced)
	cust := s.createCustomer("555-0100")
	other := s.createCustomer("555-0101")
	a := s.createCart(cust.ID)
	b := s.createCart(other.ID)
	carts := "/api/customer-details/" + cust.ID.String() + "/shopping-carts"

	rec := s.do(http.MethodPut, carts, []uuid.UUID{b.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{b.ID}, decodeInto[[]uuid.UUID](t, rec))

	rec = s.do(http.MethodGet, "/api/customer-details/"+other.ID.String()+"/shopping-carts", nil)
	assert.Empty(t, decodeInto[[]uuid.UUID](t, rec))
	rec = s.do(http.MethodGet, "/api/shopping-carts/"+a.ID.String(), nil)
	assert.Nil(t, decodeInto[store.ShoppingCart](t, rec).CustomerDetailsID)

	rec = s.do(http.MethodPut, carts, `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, carts, []uuid.UUID{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeInto[[]uuid.UUID](t, rec))
}

func TestRelationshipNotFound(t *testing.T) {
	s := newServer(t, domainagg.DeleteDenyReferenced)
	cust := s.createCustomer("555-0100")

	rec := s.do(http.MethodGet, "/api/customer-details/"+uuid.NewString()+"/shopping-carts", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	carts := "/api/customer-details/" + cust.ID.String() + "/shopping-carts"
	cart := s.createCart(cust.ID)
	cases := []struct {
		name   string
		method string
		target string
		body   any
	}{
		{"link unknown child", http.MethodPut, carts + "/" + uuid.NewString(), nil},
		{"link under unknown parent", http.MethodPut, "/api/customer-details/" + uuid.NewString() + "/shopping-carts/" + cart.ID.String(), nil},
		{"unlink unknown child", http.MethodDelete, carts + "/" + uuid.NewString(), nil},
		{"replace children of unknown parent", http.MethodPut, "/api/customer-details/" + uuid.NewString() + "/shopping-carts", []uuid.UUID{cart.ID}},
		{"replace children with unknown child", http.MethodPut, carts, []uuid.UUID{uuid.New()}},
		{"association on unknown owner", http.MethodPut, "/api/shopping-carts/" + uuid.NewString() + "/associations/customerDetails", map[string]any{"id": cust.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.target, tc.body)
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Equal(t, "notfound", errorCode(t, rec.Body.Bytes()))
		})
	}
}

func TestAssociationEndpoint(t *testing.T) {
	s := newServer(t, domainagg.DeleteDenyReferenced)
	prod := s.createProduct("hammer")
	rec := s.do(http.MethodPost, "/api/categories", map[string]any{"name": "tools"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decodeInto[store.ProductCategory](t, rec)
	target := "/api/products/" + prod.ID.String() + "/associations/category"

	rec = s.do(http.MethodPut, target, map[string]any{"id": cat.ID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/products/"+prod.ID.String(), nil)
	got := decodeInto[store.Product](t, rec)
	require.NotNil(t, got.Category)
	assert.Equal(t, "tools", *got.Category.Name)

	rec = s.do(http.MethodGet, "/api/categories/"+cat.ID.String()+"/products", nil)
	assert.Equal(t, []uuid.UUID{prod.ID}, decodeInto[[]uuid.UUID](t, rec))

	rec = s.do(http.MethodPut, target, `{"id":null}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/products/"+prod.ID.String(), nil)
	assert.Nil(t, decodeInto[store.Product](t, rec).CategoryID)

	rec = s.do(http.MethodPut, target, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/products/"+prod.ID.String()+"/associations/brand", map[string]any{"id": cat.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cust := s.createCustomer("555-0100")
	cart := s.createCart(cust.ID)
	rec = s.do(http.MethodPut, "/api/shopping-carts/"+cart.ID.String()+"/associations/customerDetails", `{"id":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"customerDetailsId"`)
}

func TestChangesEndpoint(t *testing.T) {
	s := newServer(t, domainagg.DeleteDenyReferenced)
	cust := s.createCustomer("555-0100")
	target := "/api/customer-details/" + cust.ID.String()
	rec := s.do(http.MethodPatch, target, `{"id":"`+cust.ID.String()+`","city":"Ogdenville"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/changes?entity=customerDetails&entityId="+cust.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	rows := decodeInto[[]store.Change](t, rec)
	require.Len(t, rows, 2)
	actions := []store.ChangeAction{rows[0].Action, rows[1].Action}
	assert.ElementsMatch(t, []store.ChangeAction{store.ActionCreate, store.ActionUpdate}, actions)

	rec = s.do(http.MethodGet, "/api/changes?entityId=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssociationHandlerDefaultsLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handlers.NewAssociationHandler(nil, nil,
		handlers.Owner{Entity: store.EntityProduct, Path: "products"},
		handlers.Owner{Entity: store.EntityShoppingCart, Path: "/shopping-carts/"},
	)
	engine := gin.New()
	h.Register(engine.Group("/api"))

	var paths []string
	for _, r := range engine.Routes() {
		paths = append(paths, r.Method+" "+r.Path)
	}
	assert.ElementsMatch(t, []string{
		"PUT /api/products/:id/associations/:name",
		"PUT /api/shopping-carts/:id/associations/:name",
	}, paths)
}
