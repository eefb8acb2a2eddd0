package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
)

// refGraph walks the foreign-key associations declared in store.ReferencesTo at
// table level, so deletes and relationship edits work for every entity type.
type refGraph struct {
	deps BaseDeps
}

type referrer struct {
	ref store.Reference
	ids []uuid.UUID
}

func tableOf(op, entity string) (string, error) {
	table, ok := store.Table(entity)
	if !ok {
		return "", domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("unknown entity %q", entity), nil)
	}
	return table, nil
}

func (g refGraph) exists(dbc dbctx.Context, op, entity string, id uuid.UUID) (bool, error) {
	table, err := tableOf(op, entity)
	if err != nil {
		return false, err
	}
	return g.deps.CASGuard.Exists(dbc, table, id)
}

func (g refGraph) requireExists(dbc dbctx.Context, op, entity string, id uuid.UUID) error {
	ok, err := g.exists(dbc, op, entity, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainagg.NewNotFoundError(op, entity, id.String())
	}
	return nil
}

// referrers lists, per association pointing at entity, the rows that reference id.
func (g refGraph) referrers(dbc dbctx.Context, op, entity string, id uuid.UUID) ([]referrer, error) {
	var out []referrer
	for _, ref := range store.ReferencesTo(entity) {
		table, err := tableOf(op, ref.Owner)
		if err != nil {
			return nil, err
		}
		ids, err := g.deps.CASGuard.IDsWhere(dbc, table, ref.Column, id)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			out = append(out, referrer{ref: ref, ids: ids})
		}
	}
	return out, nil
}

// denyIfReferenced fails with a conflict while any row still references id.
func (g refGraph) denyIfReferenced(dbc dbctx.Context, op, entity string, id uuid.UUID) error {
	refs, err := g.referrers(dbc, op, entity, id)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, fmt.Sprintf("%d %s via %s", len(r.ids), r.ref.Owner, r.ref.Name))
	}
	return domainagg.NewConflictError(op, fmt.Sprintf("%s %q is referenced by %s; remove them before delete",
		entity, id, strings.Join(parts, ", ")))
}

// detachOrDelete clears every reference to id: rows holding a required reference
// are deleted recursively, optional references are set to null.
func (g refGraph) detachOrDelete(dbc dbctx.Context, op, entity string, id uuid.UUID, t touched) error {
	refs, err := g.referrers(dbc, op, entity, id)
	if err != nil {
		return err
	}
	for _, r := range refs {
		table, err := tableOf(op, r.ref.Owner)
		if err != nil {
			return err
		}
		for _, child := range r.ids {
			if r.ref.Required {
				if err := g.detachOrDelete(dbc, op, r.ref.Owner, child, t); err != nil {
					return err
				}
				if _, err := g.deps.CASGuard.DeleteRow(dbc, table, child); err != nil {
					return err
				}
				before := map[string]any{"id": child, r.ref.JSON: id}
				if err := recordChanges(dbc, g.deps.Changes, newChange(r.ref.Owner, child, store.ActionDelete, before, nil)); err != nil {
					return err
				}
				t.add(r.ref.Owner, child)
				continue
			}
			if _, err := g.deps.CASGuard.UpdateGuarded(dbc, table, child,
				map[string]any{r.ref.Column: id},
				map[string]any{r.ref.Column: nil},
			); err != nil {
				return err
			}
			change := newChange(r.ref.Owner, child, store.ActionUnlink, map[string]any{r.ref.JSON: id}, map[string]any{r.ref.JSON: nil})
			if err := recordChanges(dbc, g.deps.Changes, change); err != nil {
				return err
			}
			t.add(r.ref.Owner, child)
		}
	}
	return nil
}

// setRef points owner row id's reference column at target, guarded by the value
// the caller last observed. It reports false when the row moved underneath.
func (g refGraph) setRef(dbc dbctx.Context, op string, ref store.Reference, id uuid.UUID, observed, target *uuid.UUID) (bool, error) {
	table, err := tableOf(op, ref.Owner)
	if err != nil {
		return false, err
	}
	var value any
	if target != nil {
		value = *target
	}
	return g.deps.CASGuard.UpdateGuarded(dbc, table, id,
		map[string]any{ref.Column: observedValue(observed)},
		map[string]any{ref.Column: value},
	)
}

func observedValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
