package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
)

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name      string
		op        string
		fail      error
		code      domainagg.ErrorCode
		status    string
		conflicts []string
		retries   []string
	}{
		{name: "success", op: "productCategory.Create", status: "success"},
		{
			name:   "validation",
			op:     "customerDetails.Create",
			fail:   domainagg.NewValidationError("customerDetails.Create", domainagg.Violation{Field: "phone", Reason: domainagg.ReasonRequired}),
			code:   domainagg.CodeValidation,
			status: string(domainagg.CodeValidation),
		},
		{
			name:   "invariant",
			op:     "shoppingCart.Replace",
			fail:   InvariantError("cart total must not be negative"),
			code:   domainagg.CodeInvariantViolation,
			status: string(domainagg.CodeInvariantViolation),
		},
		{
			name:      "stale version",
			op:        "shoppingCart.PartialUpdate",
			fail:      ConflictError("stale version"),
			code:      domainagg.CodeConflict,
			status:    string(domainagg.CodeConflict),
			conflicts: []string{"shoppingCart.PartialUpdate"},
		},
		{
			name:    "lock timeout",
			op:      "productOrder.Delete",
			fail:    RetryableError("database is locked"),
			code:    domainagg.CodeRetryable,
			status:  string(domainagg.CodeRetryable),
			retries: []string{"productOrder.Delete"},
		},
		{
			name:   "missing row from the store",
			op:     "product.FindOne",
			fail:   gorm.ErrRecordNotFound,
			code:   domainagg.CodeNotFound,
			status: string(domainagg.CodeNotFound),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, tc.op,
				func(_ dbctx.Context) error { return tc.fail })

			if tc.fail == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.code, domainagg.CodeOf(err))
			}
			require.Len(t, hooks.Operations, 1)
			assert.Equal(t, tc.op, hooks.Operations[0].Name)
			assert.Equal(t, tc.status, hooks.Operations[0].Status)
			assert.Equal(t, tc.conflicts, hooks.Conflicts)
			assert.Equal(t, tc.retries, hooks.Retries)
		})
	}
}

func TestExecuteWriteDefaultsBlankOperation(t *testing.T) {
	hooks := &spyHooks{}
	require.NoError(t, executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "  ",
		func(_ dbctx.Context) error { return nil }))
	require.Len(t, hooks.Operations, 1)
	assert.Equal(t, "aggregate.write", hooks.Operations[0].Name)
}

// Status labels feed metric cardinality; keep them to the code set.
func TestAggregateErrorStatus(t *testing.T) {
	assert.Equal(t, "success", aggregateErrorStatus(nil))
	assert.Equal(t, string(domainagg.CodeRetryable), aggregateErrorStatus(context.DeadlineExceeded))
	assert.Equal(t, string(domainagg.CodeInternal), aggregateErrorStatus(errors.New("disk full")))
	assert.Equal(t, string(domainagg.CodeMergeType), aggregateErrorStatus(domainagg.NewMergeTypeError("op", "store.Product", "store.ShoppingCart")))
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type spyOperation struct {
	Name   string
	Status string
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) { h.Conflicts = append(h.Conflicts, name) }

func (h *spyHooks) IncRetry(name string) { h.Retries = append(h.Retries, name) }
