package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/yungbote/storefront-backend/internal/data/patch"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Repo is the table-level store for one entity type. Every method runs on tx when
// given, otherwise on the repo's own connection.
type Repo[T any] interface {
	Table() string
	Create(ctx context.Context, tx *gorm.DB, entity *T) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error)
	GetByIDEager(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error)
	Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ReplaceByVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int, entity *T) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, tx *gorm.DB, page Page) ([]*T, int64, error)
	ListEager(ctx context.Context, tx *gorm.DB, page Page) ([]*T, int64, error)
	SortColumn(field string) (string, bool)
}

type repo[T any] struct {
	db       *gorm.DB
	log      *logger.Logger
	table    string
	views    []string
	sortable map[string]string
}

var schemaCache sync.Map

// NewRepo builds a Repo for T. views names the singular association fields that
// eager reads join in the same query.
func NewRepo[T any](db *gorm.DB, baseLog *logger.Logger, name string, views ...string) (Repo[T], error) {
	sch, err := schema.Parse(new(T), &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse %s schema: %w", name, err)
	}
	sortable := map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}
	for _, jsonName := range patch.JSONFields[T]() {
		goName, _ := patch.FieldName[T](jsonName)
		if f := sch.LookUpField(goName); f != nil && f.DBName != "" {
			sortable[jsonName] = f.DBName
		}
	}
	return &repo[T]{
		db:       db,
		log:      baseLog.With("repo", name+"Repo"),
		table:    sch.Table,
		views:    views,
		sortable: sortable,
	}, nil
}

func (r *repo[T]) Table() string { return r.table }

func (r *repo[T]) SortColumn(field string) (string, bool) {
	col, ok := r.sortable[field]
	return col, ok
}

func (r *repo[T]) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx)
}

func idEq(id uuid.UUID) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id}
}

func (r *repo[T]) Create(ctx context.Context, tx *gorm.DB, entity *T) error {
	return r.conn(ctx, tx).Omit(clause.Associations).Create(entity).Error
}

func (r *repo[T]) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error) {
	return r.first(r.conn(ctx, tx), id)
}

func (r *repo[T]) GetByIDEager(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error) {
	q := r.conn(ctx, tx)
	for _, v := range r.views {
		q = q.Joins(v)
	}
	return r.first(q, id)
}

func (r *repo[T]) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error) {
	return r.first(r.conn(ctx, tx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// first returns (nil, nil) when no row matches.
func (r *repo[T]) first(q *gorm.DB, id uuid.UUID) (*T, error) {
	var out []*T
	if err := q.Where(idEq(id)).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *repo[T]) Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx, tx).Model(new(T)).Where(idEq(id)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceByVersion overwrites every column except id and created_at, but only
// while the stored version still equals expectedVersion.
func (r *repo[T]) ReplaceByVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int, entity *T) (bool, error) {
	res := r.conn(ctx, tx).
		Model(entity).
		Where("id = ? AND version = ?", id, expectedVersion).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(entity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo[T]) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(ctx, tx).Where(idEq(id)).Delete(new(T)).Error
}

func (r *repo[T]) List(ctx context.Context, tx *gorm.DB, page Page) ([]*T, int64, error) {
	return r.list(r.conn(ctx, tx), page, false)
}

func (r *repo[T]) ListEager(ctx context.Context, tx *gorm.DB, page Page) ([]*T, int64, error) {
	return r.list(r.conn(ctx, tx), page, true)
}

func (r *repo[T]) list(q *gorm.DB, page Page, eager bool) ([]*T, int64, error) {
	var total int64
	if err := q.Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	results := []*T{}
	if total == 0 {
		return results, 0, nil
	}

	find := q.Model(new(T))
	if eager {
		for _, v := range r.views {
			find = find.Joins(v)
		}
	}
	for _, o := range page.Sort {
		col, ok := r.sortable[o.Field]
		if !ok {
			continue
		}
		find = find.Order(clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: col},
			Desc:   o.Desc,
		})
	}
	find = find.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}})
	if page.Size > 0 {
		find = find.Offset(page.Offset()).Limit(page.Size)
	}
	if err := find.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
