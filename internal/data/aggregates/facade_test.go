package aggregates_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aggtest "github.com/yungbote/storefront-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/storefront-backend/internal/data/patch"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/pointers"
)

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, domainagg.IsCode(err, code), "want %s, got %q (%v)", code, domainagg.CodeOf(err), err)
}

func requireViolation(t *testing.T, err error, field, reason string) {
	t.Helper()
	requireCode(t, err, domainagg.CodeValidation)
	for _, v := range domainagg.ViolationsOf(err) {
		if v.Field == field && v.Reason == reason {
			return
		}
	}
	t.Fatalf("violation %s/%s not in %+v", field, reason, domainagg.ViolationsOf(err))
}

func TestCreateWithIdentifierFailsForEveryEntity(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	id := uuid.New()
	cust := f.customer(t, "555-0100")

	_, err := f.categories.Create(ctx, &store.ProductCategory{Base: store.Base{ID: id}, Name: pointers.String("x")})
	requireViolation(t, err, "id", domainagg.ReasonIDExists)
	_, err = f.products.Create(ctx, &store.Product{Base: store.Base{ID: id}})
	requireViolation(t, err, "id", domainagg.ReasonIDExists)
	_, err = f.customers.Create(ctx, &store.CustomerDetails{Base: store.Base{ID: id}})
	requireViolation(t, err, "id", domainagg.ReasonIDExists)
	c := newCart(cust.ID)
	c.ID = id
	_, err = f.carts.Create(ctx, c)
	requireViolation(t, err, "id", domainagg.ReasonIDExists)
	_, err = f.orders.Create(ctx, &store.ProductOrder{Base: store.Base{ID: id}})
	requireViolation(t, err, "id", domainagg.ReasonIDExists)
}

func TestCreateNamesEveryMissingRequiredField(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	_, err := f.orders.Create(context.Background(), &store.ProductOrder{TotalPrice: pointers.Decimal("1.00")})
	requireViolation(t, err, "quantity", domainagg.ReasonRequired)
	requireViolation(t, err, "productId", domainagg.ReasonRequired)
	requireViolation(t, err, "cartId", domainagg.ReasonRequired)
	assert.Zero(t, f.runner.BeginCalls, "validation rejects before a transaction opens")
}

func TestCreateIgnoresClientTimestamps(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	backdated := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := f.customers.Create(context.Background(), &store.CustomerDetails{
		Base:  store.Base{CreatedAt: backdated, UpdatedAt: backdated},
		Phone: pointers.String("555-0199"),
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)

	stored, err := f.customers.FindOne(context.Background(), got.ID)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.After(backdated))
}

func TestCreateRejectsUnknownReference(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	_, err := f.carts.Create(context.Background(), newCart(uuid.New()))
	requireViolation(t, err, "customerDetailsId", domainagg.ReasonUnknownReference)
}

func TestCreateAssignsIdentifierAndRecordsChange(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	cust := f.customer(t, "555-0100")

	require.NotEqual(t, uuid.Nil, cust.ID)
	assert.Equal(t, "555-0100", *cust.Phone)
	assert.Equal(t, 0, cust.Version)

	rows, total, err := f.changes.List(context.Background(), nil, repos.ChangeFilter{EntityID: cust.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, store.ActionCreate, rows[0].Action)
	var after map[string]any
	require.NoError(t, json.Unmarshal(rows[0].After, &after))
	assert.Equal(t, "Springfield", after["city"])
}

func TestPartialUpdateKeepsUntouchedFields(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)

	p, err := patch.Parse[store.ShoppingCart]([]byte(`{"id":"` + cart.ID.String() + `","paymentReference":"NEW456"}`))
	require.NoError(t, err)
	got, err := f.carts.PartialUpdate(ctx, cart.ID, p, nil)
	require.NoError(t, err)

	assert.Equal(t, "NEW456", *got.PaymentReference)
	assert.Equal(t, store.OrderStatusPaid, *got.Status)
	assert.True(t, got.TotalPrice.Equal(*pointers.Decimal("50.00")))
	assert.Equal(t, cust.ID, *got.CustomerDetailsID)
	assert.Equal(t, 1, got.Version)
}

func TestPartialUpdateIdentityRules(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")

	_, err := f.customers.PartialUpdate(ctx, cust.ID, patch.New[store.CustomerDetails]().Set("city", "Shelbyville"), nil)
	requireViolation(t, err, "id", domainagg.ReasonIDNull)

	_, err = f.customers.PartialUpdate(ctx, cust.ID, patch.New[store.CustomerDetails]().Set("id", uuid.New()), nil)
	requireViolation(t, err, "id", domainagg.ReasonIDInvalid)

	unknown := uuid.New()
	_, err = f.customers.PartialUpdate(ctx, unknown, patch.New[store.CustomerDetails]().Set("id", unknown), nil)
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestPartialUpdateExplicitNullClearsOptionalField(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	cust := f.customer(t, "555-0100")

	p := patch.New[store.CustomerDetails]().Set("id", cust.ID).SetNull("phone")
	got, err := f.customers.PartialUpdate(context.Background(), cust.ID, p, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Phone)
	assert.Equal(t, "Springfield", *got.City)
}

func TestPartialUpdateRejectsNullRequiredField(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)

	p := patch.New[store.ShoppingCart]().Set("id", cart.ID).SetNull("status")
	_, err := f.carts.PartialUpdate(context.Background(), cart.ID, p, nil)
	requireViolation(t, err, "status", domainagg.ReasonRequired)
}

func TestStaleVersionConflicts(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")

	first := patch.New[store.CustomerDetails]().Set("id", cust.ID).Set("city", "Capital City")
	updated, err := f.customers.PartialUpdate(ctx, cust.ID, first, pointers.Int(0))
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)

	second := patch.New[store.CustomerDetails]().Set("id", cust.ID).Set("city", "Ogdenville")
	_, err = f.customers.PartialUpdate(ctx, cust.ID, second, pointers.Int(0))
	requireCode(t, err, domainagg.CodeConflict)
	assert.Contains(t, f.hooks.Conflicts, "customerDetails.PartialUpdate")
	assert.Equal(t, []string{"success", "conflict"}, f.hooks.Statuses("customerDetails.PartialUpdate"))

	got, err := f.customers.FindOne(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capital City", *got.City)
}

func TestReplaceIsFullOverwrite(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")

	body := &store.CustomerDetails{Base: store.Base{ID: cust.ID}, City: pointers.String("Shelbyville")}
	got, err := f.customers.Replace(ctx, cust.ID, body, nil)
	require.NoError(t, err)
	assert.Nil(t, got.Phone, "omitted fields are nulled by replace")
	assert.Nil(t, got.Country)
	assert.Equal(t, "Shelbyville", *got.City)
	assert.Equal(t, 1, got.Version)
	assert.WithinDuration(t, cust.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestReplaceRules(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)

	body := newCart(cust.ID)
	_, err := f.carts.Replace(ctx, cart.ID, body, nil)
	requireViolation(t, err, "id", domainagg.ReasonIDNull)

	body.ID = uuid.New()
	_, err = f.carts.Replace(ctx, cart.ID, body, nil)
	requireViolation(t, err, "id", domainagg.ReasonIDInvalid)

	_, err = f.carts.Replace(ctx, body.ID, body, nil)
	requireCode(t, err, domainagg.CodeNotFound)

	f.runner.Reset()
	var nulled store.ShoppingCart
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+cart.ID.String()+`","status":null,"totalPrice":"50.00","paymentMethod":"CREDIT_CARD","placedDate":"2024-03-01T12:00:00Z","customerDetailsId":"`+cust.ID.String()+`"}`), &nulled))
	_, err = f.carts.Replace(ctx, cart.ID, &nulled, nil)
	requireViolation(t, err, "status", domainagg.ReasonRequired)
	assert.Zero(t, f.runner.BeginCalls, "validation rejects before a transaction opens")

	body.ID = cart.ID
	body.Status = nil
	_, err = f.carts.Replace(ctx, cart.ID, body, nil)
	requireViolation(t, err, "status", domainagg.ReasonRequired)

	body = newCart(uuid.New())
	body.ID = cart.ID
	_, err = f.carts.Replace(ctx, cart.ID, body, nil)
	requireViolation(t, err, "customerDetailsId", domainagg.ReasonUnknownReference)
}

func TestFindOneEmbedsAssociationAndMissingIsNotFound(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)

	got, err := f.carts.FindOne(ctx, cart.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomerDetails)
	assert.Equal(t, cust.ID, got.CustomerDetails.ID)

	_, err = f.carts.FindOne(ctx, uuid.New())
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestFindAllAndEagerAgree(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	for i := 0; i < 3; i++ {
		f.cart(t, cust.ID)
	}

	q := domainagg.ListQuery{Page: 0, Size: 2, Sort: []domainagg.SortKey{{Field: "placedDate", Desc: true}}}
	shallow, err := f.carts.FindAll(ctx, q)
	require.NoError(t, err)
	eager, err := f.carts.FindAllEager(ctx, q)
	require.NoError(t, err)

	assert.EqualValues(t, 3, shallow.Total)
	assert.Equal(t, shallow.Total, eager.Total)
	require.Len(t, eager.Items, 2)
	for i := range shallow.Items {
		assert.Equal(t, shallow.Items[i].ID, eager.Items[i].ID)
		assert.NotNil(t, eager.Items[i].CustomerDetails)
	}

	_, err = f.carts.FindAll(ctx, domainagg.ListQuery{Size: 2, Sort: []domainagg.SortKey{{Field: "nope"}}})
	requireViolation(t, err, "sort", `unknown sort field "nope"`)
}

func TestDeleteDeniedWhileReferenced(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	empty := f.cart(t, cust.ID)
	full := f.cart(t, cust.ID)
	prod := f.product(t, "widget", nil)
	f.order(t, prod.ID, full.ID)

	require.NoError(t, f.carts.Delete(ctx, empty.ID))
	requireCode(t, f.carts.Delete(ctx, full.ID), domainagg.CodeConflict)
	requireCode(t, f.products.Delete(ctx, prod.ID), domainagg.CodeConflict)
	requireCode(t, f.carts.Delete(ctx, empty.ID), domainagg.CodeNotFound)

	_, err := f.carts.FindOne(ctx, full.ID)
	require.NoError(t, err)
}

func TestDeleteCascadePolicy(t *testing.T) {
	f := newFixture(t, domainagg.DeleteCascade)
	ctx := context.Background()
	cat := f.categories
	category, err := cat.Create(ctx, &store.ProductCategory{Name: pointers.String("tools")})
	require.NoError(t, err)
	prod := f.product(t, "hammer", &category.ID)
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)
	order := f.order(t, prod.ID, cart.ID)

	require.NoError(t, f.customers.Delete(ctx, cust.ID))
	_, err = f.carts.FindOne(ctx, cart.ID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.orders.FindOne(ctx, order.ID)
	requireCode(t, err, domainagg.CodeNotFound)

	require.NoError(t, f.categories.Delete(ctx, category.ID))
	got, err := f.products.FindOne(ctx, prod.ID)
	require.NoError(t, err, "optional references are detached, not deleted")
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, 1, got.Version)
}

func TestCommitFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")

	f.runner.FailCommit = aggtest.ErrInjectedCommit
	_, err := f.carts.Create(ctx, newCart(cust.ID))
	require.Error(t, err)
	f.runner.FailCommit = nil

	page, err := f.carts.FindAll(ctx, domainagg.ListQuery{Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
	_, total, err := f.changes.List(ctx, nil, repos.ChangeFilter{Entity: store.EntityShoppingCart})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestUpdateInvalidatesReferrerCache(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")
	cart := f.cart(t, cust.ID)

	_, err := f.carts.FindOne(ctx, cart.ID)
	require.NoError(t, err)
	require.True(t, f.cache.has(store.EntityShoppingCart, cart.ID))

	p := patch.New[store.CustomerDetails]().Set("id", cust.ID).Set("city", "Ogdenville")
	_, err = f.customers.PartialUpdate(ctx, cust.ID, p, nil)
	require.NoError(t, err)
	assert.False(t, f.cache.has(store.EntityShoppingCart, cart.ID), "cart embeds the customer and must be dropped")

	got, err := f.carts.FindOne(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ogdenville", *got.CustomerDetails.City)
}

func TestFindOneDropsFillRacingAWrite(t *testing.T) {
	f := newFixture(t, domainagg.DeleteDenyReferenced)
	ctx := context.Background()
	cust := f.customer(t, "555-0100")

	// the write commits after FindOne loaded the old row but before it fills the cache
	f.cache.beforeSet = func() {
		p := patch.New[store.CustomerDetails]().Set("id", cust.ID).Set("city", "Ogdenville")
		_, err := f.customers.PartialUpdate(ctx, cust.ID, p, nil)
		require.NoError(t, err)
	}
	stale, err := f.customers.FindOne(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", *stale.City)
	assert.False(t, f.cache.has(store.EntityCustomerDetails, cust.ID))

	got, err := f.customers.FindOne(ctx, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ogdenville", *got.City)
	assert.True(t, f.cache.has(store.EntityCustomerDetails, cust.ID))
}
