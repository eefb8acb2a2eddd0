package pointers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func Int(v int) *int          { return &v }
func String(v string) *string { return &v }
func UUID(v uuid.UUID) *uuid.UUID {
	return &v
}
func Time(v time.Time) *time.Time { return &v }

// Decimal parses s and panics on malformed input; meant for literals in fixtures.
func Decimal(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
