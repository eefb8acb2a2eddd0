package aggregates

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/data/patch"
	"github.com/yungbote/storefront-backend/internal/data/repos/entity"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// entityPtr is satisfied by *T for every store entity type.
type entityPtr[T any] interface {
	*T
	store.Entity
	ClearViews()
}

type EntityAggregateDeps[T any] struct {
	Base   BaseDeps
	Entity string
	Repo   entity.Repo[T]
	Policy domainagg.DeletePolicy
}

type entityAggregate[T any, P entityPtr[T]] struct {
	deps  EntityAggregateDeps[T]
	log   *logger.Logger
	graph refGraph
	refs  []store.Reference
}

// NewEntityAggregate builds the facade for one entity type, e.g.
// NewEntityAggregate[store.Product](deps).
func NewEntityAggregate[T any, P entityPtr[T]](deps EntityAggregateDeps[T]) domainagg.EntityAggregate[T, patch.Patch[T]] {
	deps.Base = deps.Base.withDefaults()
	if deps.Policy == "" {
		deps.Policy = domainagg.DeleteDenyReferenced
	}
	return &entityAggregate[T, P]{
		deps:  deps,
		log:   deps.Base.Log.With("aggregate", deps.Entity+"Aggregate"),
		graph: refGraph{deps: deps.Base},
		refs:  store.ReferencesFrom(deps.Entity),
	}
}

func (a *entityAggregate[T, P]) Contract() domainagg.Contract {
	return domainagg.EntityAggregateContract
}

func (a *entityAggregate[T, P]) op(name string) string {
	return a.deps.Entity + "." + name
}

func missingBody(op string) error {
	return domainagg.NewValidationError(op, domainagg.Violation{Field: "", Reason: "missing body"})
}

func (a *entityAggregate[T, P]) Create(ctx context.Context, e *T) (*T, error) {
	op := a.op("Create")
	if e == nil {
		return nil, missingBody(op)
	}
	meta := P(e).Meta()
	if meta.ID != uuid.Nil {
		return nil, domainagg.NewValidationError(op, domainagg.Violation{Field: "id", Reason: domainagg.ReasonIDExists})
	}
	P(e).ClearViews()
	if violations := store.Validate(e); len(violations) > 0 {
		return nil, domainagg.NewValidationError(op, violations...)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.checkReferences(dbc, op, e); err != nil {
			return err
		}
		meta.ID = uuid.New()
		meta.Version = 0
		meta.CreatedAt, meta.UpdatedAt = time.Time{}, time.Time{}
		if err := a.deps.Repo.Create(dbc.Ctx, dbc.Tx, e); err != nil {
			return err
		}
		return recordChanges(dbc, a.deps.Base.Changes, newChange(a.deps.Entity, meta.ID, store.ActionCreate, nil, e))
	})
	if err != nil {
		meta.ID = uuid.Nil
		return nil, err
	}
	return e, nil
}

func (a *entityAggregate[T, P]) Replace(ctx context.Context, id uuid.UUID, e *T, expectedVersion *int) (*T, error) {
	op := a.op("Replace")
	if e == nil {
		return nil, missingBody(op)
	}
	if err := checkIdentity(op, id, P(e).Meta().ID); err != nil {
		return nil, err
	}
	P(e).ClearViews()
	if violations := store.Validate(e); len(violations) > 0 {
		return nil, domainagg.NewValidationError(op, violations...)
	}
	return a.update(ctx, op, id, expectedVersion, func(*T) (*T, error) {
		return e, nil
	})
}

func (a *entityAggregate[T, P]) PartialUpdate(ctx context.Context, id uuid.UUID, p patch.Patch[T], expectedVersion *int) (*T, error) {
	op := a.op("PartialUpdate")
	if err := checkPatchIdentity(op, id, p.Identifier()); err != nil {
		return nil, err
	}
	return a.update(ctx, op, id, expectedVersion, func(current *T) (*T, error) {
		merged, err := patch.Apply(*current, p)
		if err != nil {
			return nil, err
		}
		if violations := store.Validate(&merged); len(violations) > 0 {
			return nil, domainagg.NewValidationError(op, violations...)
		}
		return &merged, nil
	})
}

// update loads and locks id, derives the next state from it and writes that state
// back guarded by the loaded version.
func (a *entityAggregate[T, P]) update(ctx context.Context, op string, id uuid.UUID, expectedVersion *int, next func(current *T) (*T, error)) (*T, error) {
	var out *T
	t := touched{}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Repo.LockByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewNotFoundError(op, a.deps.Entity, id.String())
		}
		cm := P(current).Meta()
		if expectedVersion != nil {
			if err := RequireVersionMatch(cm.Version, *expectedVersion); err != nil {
				return err
			}
		}
		before := snapshot(current)

		nextState, err := next(current)
		if err != nil {
			return err
		}
		if err := a.checkReferences(dbc, op, nextState); err != nil {
			return err
		}
		nm := P(nextState).Meta()
		nm.ID = id
		nm.Version = cm.Version + 1
		nm.CreatedAt = cm.CreatedAt
		P(nextState).ClearViews()

		ok, err := a.deps.Repo.ReplaceByVersion(dbc.Ctx, dbc.Tx, id, cm.Version, nextState)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("%s %s changed concurrently", a.deps.Entity, id)); err != nil {
			return err
		}
		out, err = a.deps.Repo.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		change := newChange(a.deps.Entity, id, store.ActionUpdate, nil, out)
		change.Before = before
		if err := recordChanges(dbc, a.deps.Base.Changes, change); err != nil {
			return err
		}
		return a.touchWithReferrers(dbc, op, id, t)
	})
	t.flush(ctx, a.deps.Base.Cache)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// touchWithReferrers marks id and every row embedding it in an eager read as stale.
func (a *entityAggregate[T, P]) touchWithReferrers(dbc dbctx.Context, op string, id uuid.UUID, t touched) error {
	t.add(a.deps.Entity, id)
	refs, err := a.graph.referrers(dbc, op, a.deps.Entity, id)
	if err != nil {
		return err
	}
	for _, r := range refs {
		t.add(r.ref.Owner, r.ids...)
	}
	return nil
}

func (a *entityAggregate[T, P]) FindOne(ctx context.Context, id uuid.UUID) (*T, error) {
	op := a.op("FindOne")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	var cached T
	if a.deps.Base.Cache.Get(ctx, a.deps.Entity, id, &cached) {
		return &cached, nil
	}
	stamp := a.deps.Base.Cache.Stamp(ctx, a.deps.Entity, id)
	row, err := a.deps.Repo.GetByIDEager(ctx, nil, id)
	if err != nil {
		return nil, MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NewNotFoundError(op, a.deps.Entity, id.String())
	}
	a.deps.Base.Cache.Set(ctx, a.deps.Entity, id, row, stamp)
	return row, nil
}

func (a *entityAggregate[T, P]) FindAll(ctx context.Context, q domainagg.ListQuery) (domainagg.ListResult[T], error) {
	return a.find(ctx, a.op("FindAll"), q, false)
}

func (a *entityAggregate[T, P]) FindAllEager(ctx context.Context, q domainagg.ListQuery) (domainagg.ListResult[T], error) {
	return a.find(ctx, a.op("FindAllEager"), q, true)
}

func (a *entityAggregate[T, P]) find(ctx context.Context, op string, q domainagg.ListQuery, eager bool) (domainagg.ListResult[T], error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	page := entity.Page{Page: q.Page, Size: q.Size}
	for _, s := range q.Sort {
		if _, ok := a.deps.Repo.SortColumn(s.Field); !ok {
			return domainagg.ListResult[T]{}, domainagg.NewValidationError(op, domainagg.Violation{Field: "sort", Reason: fmt.Sprintf("unknown sort field %q", s.Field)})
		}
		page.Sort = append(page.Sort, entity.Order{Field: s.Field, Desc: s.Desc})
	}
	list := a.deps.Repo.List
	if eager {
		list = a.deps.Repo.ListEager
	}
	items, total, err := list(ctx, nil, page)
	if err != nil {
		return domainagg.ListResult[T]{}, MapError(op, err)
	}
	return domainagg.ListResult[T]{Items: items, Total: total, Page: q.Page, Size: q.Size}, nil
}

func (a *entityAggregate[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	op := a.op("Delete")
	t := touched{}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Repo.LockByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewNotFoundError(op, a.deps.Entity, id.String())
		}
		switch a.deps.Policy {
		case domainagg.DeleteCascade:
			if err := a.graph.detachOrDelete(dbc, op, a.deps.Entity, id, t); err != nil {
				return err
			}
			a.log.Debug("cascade delete", "entity", a.deps.Entity, "id", id)
		default:
			if err := a.graph.denyIfReferenced(dbc, op, a.deps.Entity, id); err != nil {
				return err
			}
		}
		if err := a.deps.Repo.Delete(dbc.Ctx, dbc.Tx, id); err != nil {
			return err
		}
		t.add(a.deps.Entity, id)
		return recordChanges(dbc, a.deps.Base.Changes, newChange(a.deps.Entity, id, store.ActionDelete, current, nil))
	})
	t.flush(ctx, a.deps.Base.Cache)
	return err
}

// checkReferences rejects singular references to rows that do not exist.
func (a *entityAggregate[T, P]) checkReferences(dbc dbctx.Context, op string, e *T) error {
	var violations []domainagg.Violation
	for _, ref := range a.refs {
		target := referenceValue(e, ref.Field)
		if target == nil {
			continue
		}
		ok, err := a.graph.exists(dbc, op, ref.Target, *target)
		if err != nil {
			return err
		}
		if !ok {
			violations = append(violations, domainagg.Violation{Field: ref.JSON, Reason: domainagg.ReasonUnknownReference})
		}
	}
	if len(violations) > 0 {
		return domainagg.NewValidationError(op, violations...)
	}
	return nil
}

func referenceValue[T any](e *T, field string) *uuid.UUID {
	f := reflect.ValueOf(e).Elem().FieldByName(field)
	if !f.IsValid() {
		return nil
	}
	id, _ := f.Interface().(*uuid.UUID)
	return id
}

// checkIdentity applies the identifier rules shared by replace and patch: the body
// must carry an id, and it must be the one addressed.
func checkIdentity(op string, id, bodyID uuid.UUID) error {
	if bodyID == uuid.Nil {
		return domainagg.NewValidationError(op, domainagg.Violation{Field: "id", Reason: domainagg.ReasonIDNull})
	}
	if bodyID != id {
		return domainagg.NewValidationError(op, domainagg.Violation{Field: "id", Reason: domainagg.ReasonIDInvalid})
	}
	return nil
}

func checkPatchIdentity(op string, id uuid.UUID, f patch.Field[any]) error {
	v, ok := f.Get()
	if !ok {
		return checkIdentity(op, id, uuid.Nil)
	}
	bodyID, _ := v.(uuid.UUID)
	if bodyID == uuid.Nil {
		return checkIdentity(op, id, uuid.Nil)
	}
	return checkIdentity(op, id, bodyID)
}
