package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var RelationshipAggregateContract = Contract{
	Name:             "Store.RelationshipAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns parent/child membership: a child is in a parent's set iff its back-reference names that parent.",
}

// RelationshipAggregate maintains foreign-key associations. Parent and owner names
// are entity names; Relation is the child-set name exposed by the parent.
type RelationshipAggregate interface {
	Aggregate

	// LinkChild points the child's back-reference at the parent. Relinking is a no-op.
	LinkChild(ctx context.Context, in LinkInput) error

	// UnlinkChild clears the child's back-reference only while it names the parent.
	UnlinkChild(ctx context.Context, in LinkInput) error

	// ReplaceChildren makes the parent's child set exactly in.ChildIDs.
	ReplaceChildren(ctx context.Context, in ReplaceChildrenInput) (ReplaceChildrenResult, error)

	// Children lists the parent's child set, ordered by id.
	Children(ctx context.Context, parent string, parentID uuid.UUID, relation string) ([]uuid.UUID, error)

	// SetSingularAssociation assigns an owner's reference field. A nil target clears it
	// and is rejected for required associations.
	SetSingularAssociation(ctx context.Context, in AssociationInput) error
}

type LinkInput struct {
	Parent   string
	ParentID uuid.UUID
	Relation string
	ChildID  uuid.UUID
}

type ReplaceChildrenInput struct {
	Parent   string
	ParentID uuid.UUID
	Relation string
	ChildIDs []uuid.UUID
}

type ReplaceChildrenResult struct {
	Children []uuid.UUID
	Linked   []uuid.UUID
	Unlinked []uuid.UUID
}

type AssociationInput struct {
	Owner    string
	OwnerID  uuid.UUID
	Name     string
	TargetID *uuid.UUID
}
