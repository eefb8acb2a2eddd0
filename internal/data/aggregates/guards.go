package aggregates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
)

// CASGuard provides optimistic/concurrency guard helpers for aggregate writes.
// Its helpers work on table names so one guard serves every entity type.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if db := dbc.DB(g.db); db != nil {
		return db, nil
	}
	return nil, ValidationError("missing db transaction context")
}

func checkTarget(table string, id uuid.UUID) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return "", ValidationError("table and id are required")
	}
	return table, nil
}

// bumped adds the version increment and timestamp every guarded write carries.
func bumped(updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		out[k] = v
	}
	out["version"] = gorm.Expr("version + 1")
	out["updated_at"] = time.Now().UTC()
	return out
}

// UpdateGuarded updates a row only while every guard column holds its value; a
// nil guard value matches NULL. Successful updates bump the version.
func (g CASGuard) UpdateGuarded(dbc dbctx.Context, table string, id uuid.UUID, guards map[string]any, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table, err = checkTarget(table, id)
	if err != nil {
		return false, err
	}
	q := db.Table(table).Where("id = ?", id)
	cols := make([]string, 0, len(guards))
	for col := range guards {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		v := guards[col]
		if isNilValue(v) {
			q = q.Where(clause.Expr{SQL: "? IS NULL", Vars: []any{clause.Column{Name: col}}})
			continue
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
	}
	res := q.Updates(bumped(updates))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (g CASGuard) Exists(dbc dbctx.Context, table string, id uuid.UUID) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table, err = checkTarget(table, id)
	if err != nil {
		return false, err
	}
	var n int64
	if err := db.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type refRow struct {
	ID  uuid.UUID
	Ref *uuid.UUID
}

// RefValue reads a nullable reference column. found is false when the row is missing.
func (g CASGuard) RefValue(dbc dbctx.Context, table string, id uuid.UUID, column string) (ref *uuid.UUID, found bool, err error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return nil, false, err
	}
	table, err = checkTarget(table, id)
	if err != nil {
		return nil, false, err
	}
	var rows []refRow
	err = db.Table(table).
		Select("id", fmt.Sprintf("%s AS ref", db.Statement.Quote(column))).
		Where("id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0].Ref, true, nil
}

// IDsWhere lists the ids of rows whose column equals value, ordered by id.
func (g CASGuard) IDsWhere(dbc dbctx.Context, table, column string, value uuid.UUID) ([]uuid.UUID, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return nil, err
	}
	ids := []uuid.UUID{}
	err = db.Table(table).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteRow removes one row by id and reports whether it existed.
func (g CASGuard) DeleteRow(dbc dbctx.Context, table string, id uuid.UUID) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table, err = checkTarget(table, id)
	if err != nil {
		return false, err
	}
	res := db.Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: table}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireVersionMatch validates version equality for optimistic locking flows.
func RequireVersionMatch(current, expected int) error {
	if expected < 0 {
		return ValidationError("expected version must be >= 0")
	}
	if current != expected {
		return ConflictError(fmt.Sprintf("version mismatch: stored %d, expected %d", current, expected))
	}
	return nil
}

func isNilValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *uuid.UUID:
		return t == nil
	}
	return false
}
