package aggregates

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
)

type RelationshipAggregateDeps struct {
	Base BaseDeps
}

type relationshipAggregate struct {
	deps  RelationshipAggregateDeps
	graph refGraph
}

func NewRelationshipAggregate(deps RelationshipAggregateDeps) domainagg.RelationshipAggregate {
	deps.Base = deps.Base.withDefaults()
	return &relationshipAggregate{deps: deps, graph: refGraph{deps: deps.Base}}
}

func (a *relationshipAggregate) Contract() domainagg.Contract {
	return domainagg.RelationshipAggregateContract
}

func (a *relationshipAggregate) relation(op, parent, relation string) (store.Reference, error) {
	ref, ok := store.LookupInverse(parent, relation)
	if !ok {
		return ref, domainagg.NewValidationError(op, domainagg.Violation{Field: relation, Reason: "unknown relation"})
	}
	return ref, nil
}

func (a *relationshipAggregate) LinkChild(ctx context.Context, in domainagg.LinkInput) error {
	const op = "Relationship.LinkChild"
	ref, err := a.relation(op, in.Parent, in.Relation)
	if err != nil {
		return err
	}
	t := touched{}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.graph.requireExists(dbc, op, in.Parent, in.ParentID); err != nil {
			return err
		}
		_, err := a.link(dbc, op, ref, in.ParentID, in.ChildID, t)
		return err
	})
	t.flush(ctx, a.deps.Base.Cache)
	return err
}

// link reports whether the child's reference actually changed.
func (a *relationshipAggregate) link(dbc dbctx.Context, op string, ref store.Reference, parentID, childID uuid.UUID, t touched) (bool, error) {
	table, err := tableOf(op, ref.Owner)
	if err != nil {
		return false, err
	}
	current, found, err := a.deps.Base.CASGuard.RefValue(dbc, table, childID, ref.Column)
	if err != nil {
		return false, err
	}
	if !found {
		return false, domainagg.NewNotFoundError(op, ref.Owner, childID.String())
	}
	if current != nil && *current == parentID {
		return false, nil
	}
	ok, err := a.graph.setRef(dbc, op, ref, childID, current, &parentID)
	if err != nil {
		return false, err
	}
	if err := RequireCASSuccess(ok, fmt.Sprintf("%s %s changed concurrently", ref.Owner, childID)); err != nil {
		return false, err
	}
	change := newChange(ref.Owner, childID, store.ActionLink,
		map[string]any{ref.JSON: current}, map[string]any{ref.JSON: parentID})
	if err := recordChanges(dbc, a.deps.Base.Changes, change); err != nil {
		return false, err
	}
	t.add(ref.Owner, childID)
	return true, nil
}

func (a *relationshipAggregate) UnlinkChild(ctx context.Context, in domainagg.LinkInput) error {
	const op = "Relationship.UnlinkChild"
	ref, err := a.relation(op, in.Parent, in.Relation)
	if err != nil {
		return err
	}
	t := touched{}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.graph.requireExists(dbc, op, in.Parent, in.ParentID); err != nil {
			return err
		}
		_, err := a.unlink(dbc, op, ref, in.ParentID, in.ChildID, t)
		return err
	})
	t.flush(ctx, a.deps.Base.Cache)
	return err
}

// unlink clears the child's reference only while it still names parentID.
func (a *relationshipAggregate) unlink(dbc dbctx.Context, op string, ref store.Reference, parentID, childID uuid.UUID, t touched) (bool, error) {
	ok, err := a.graph.setRef(dbc, op, ref, childID, &parentID, nil)
	if err != nil {
		return false, err
	}
	if !ok {
		exists, err := a.graph.exists(dbc, op, ref.Owner, childID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, domainagg.NewNotFoundError(op, ref.Owner, childID.String())
		}
		return false, nil
	}
	change := newChange(ref.Owner, childID, store.ActionUnlink,
		map[string]any{ref.JSON: parentID}, map[string]any{ref.JSON: nil})
	if err := recordChanges(dbc, a.deps.Base.Changes, change); err != nil {
		return false, err
	}
	t.add(ref.Owner, childID)
	return true, nil
}

func (a *relationshipAggregate) ReplaceChildren(ctx context.Context, in domainagg.ReplaceChildrenInput) (domainagg.ReplaceChildrenResult, error) {
	const op = "Relationship.ReplaceChildren"
	var out domainagg.ReplaceChildrenResult
	ref, err := a.relation(op, in.Parent, in.Relation)
	if err != nil {
		return out, err
	}
	want := dedupe(in.ChildIDs)
	t := touched{}
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.graph.requireExists(dbc, op, in.Parent, in.ParentID); err != nil {
			return err
		}
		table, err := tableOf(op, ref.Owner)
		if err != nil {
			return err
		}
		current, err := a.deps.Base.CASGuard.IDsWhere(dbc, table, ref.Column, in.ParentID)
		if err != nil {
			return err
		}
		keep := make(map[uuid.UUID]bool, len(want))
		for _, id := range want {
			keep[id] = true
		}
		had := make(map[uuid.UUID]bool, len(current))
		for _, id := range current {
			had[id] = true
			if keep[id] {
				continue
			}
			if _, err := a.unlink(dbc, op, ref, in.ParentID, id, t); err != nil {
				return err
			}
			out.Unlinked = append(out.Unlinked, id)
		}
		for _, id := range want {
			if had[id] {
				continue
			}
			if _, err := a.link(dbc, op, ref, in.ParentID, id, t); err != nil {
				return err
			}
			out.Linked = append(out.Linked, id)
		}
		out.Children, err = a.deps.Base.CASGuard.IDsWhere(dbc, table, ref.Column, in.ParentID)
		return err
	})
	t.flush(ctx, a.deps.Base.Cache)
	if err != nil {
		return domainagg.ReplaceChildrenResult{}, err
	}
	return out, nil
}

func (a *relationshipAggregate) Children(ctx context.Context, parent string, parentID uuid.UUID, relation string) ([]uuid.UUID, error) {
	const op = "Relationship.Children"
	ref, err := a.relation(op, parent, relation)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	if err := a.graph.requireExists(dbc, op, parent, parentID); err != nil {
		return nil, MapError(op, err)
	}
	table, err := tableOf(op, ref.Owner)
	if err != nil {
		return nil, err
	}
	ids, err := a.deps.Base.CASGuard.IDsWhere(dbc, table, ref.Column, parentID)
	if err != nil {
		return nil, MapError(op, err)
	}
	return ids, nil
}

func (a *relationshipAggregate) SetSingularAssociation(ctx context.Context, in domainagg.AssociationInput) error {
	const op = "Relationship.SetSingularAssociation"
	ref, ok := store.LookupReference(in.Owner, in.Name)
	if !ok {
		return domainagg.NewValidationError(op, domainagg.Violation{Field: in.Name, Reason: "unknown association"})
	}
	if in.TargetID == nil && ref.Required {
		return domainagg.NewValidationError(op, domainagg.Violation{Field: ref.JSON, Reason: domainagg.ReasonRequired})
	}
	t := touched{}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		table, err := tableOf(op, ref.Owner)
		if err != nil {
			return err
		}
		current, found, err := a.deps.Base.CASGuard.RefValue(dbc, table, in.OwnerID, ref.Column)
		if err != nil {
			return err
		}
		if !found {
			return domainagg.NewNotFoundError(op, in.Owner, in.OwnerID.String())
		}
		if in.TargetID != nil {
			ok, err := a.graph.exists(dbc, op, ref.Target, *in.TargetID)
			if err != nil {
				return err
			}
			if !ok {
				return domainagg.NewValidationError(op, domainagg.Violation{Field: ref.JSON, Reason: domainagg.ReasonUnknownReference})
			}
		}
		if sameRef(current, in.TargetID) {
			return nil
		}
		ok, err := a.graph.setRef(dbc, op, ref, in.OwnerID, current, in.TargetID)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("%s %s changed concurrently", in.Owner, in.OwnerID)); err != nil {
			return err
		}
		change := newChange(in.Owner, in.OwnerID, store.ActionUpdate,
			map[string]any{ref.JSON: current}, map[string]any{ref.JSON: in.TargetID})
		if err := recordChanges(dbc, a.deps.Base.Changes, change); err != nil {
			return err
		}
		t.add(in.Owner, in.OwnerID)
		return nil
	})
	t.flush(ctx, a.deps.Base.Cache)
	return err
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
