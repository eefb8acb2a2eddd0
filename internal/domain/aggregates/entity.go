package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var EntityAggregateContract = Contract{
	Name:             "Store.EntityAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyTableRepoQueries,
	Notes:            "Owns identity, existence, version and referential rules for create/replace/patch/delete of one entity type.",
}

// EntityAggregate is the per-entity facade. P is the patch representation for T.
//
// Write failures return *Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeMergeType, CodeRetryable, CodeInternal.
type EntityAggregate[T any, P any] interface {
	Aggregate

	// Create persists entity and returns it with its assigned identifier and version 0.
	Create(ctx context.Context, entity *T) (*T, error)

	// Replace overwrites every scalar and singular-reference field of id with entity.
	// expectedVersion, when non-nil, must equal the stored version.
	Replace(ctx context.Context, id uuid.UUID, entity *T, expectedVersion *int) (*T, error)

	// PartialUpdate merges p into the stored entity id.
	PartialUpdate(ctx context.Context, id uuid.UUID, p P, expectedVersion *int) (*T, error)

	FindOne(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context, q ListQuery) (ListResult[T], error)
	FindAllEager(ctx context.Context, q ListQuery) (ListResult[T], error)

	// Delete removes id according to the configured DeletePolicy.
	Delete(ctx context.Context, id uuid.UUID) error
}

// SortKey orders a list by one JSON field name.
type SortKey struct {
	Field string
	Desc  bool
}

// ListQuery selects one 0-based page of a list.
type ListQuery struct {
	Page int
	Size int
	Sort []SortKey
}

type ListResult[T any] struct {
	Items []*T
	Total int64
	Page  int
	Size  int
}
