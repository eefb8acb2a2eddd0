package store

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by every entity. ID stays uuid.Nil until the store assigns one.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" merge:"id"`
	Version   int       `gorm:"not null;default:0" json:"version" merge:"version"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt" merge:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt" merge:"-"`
}

func (b *Base) Meta() *Base { return b }

// Entity is implemented by pointers to every persisted type.
type Entity interface {
	Meta() *Base
}

// SameEntity reports whether a and b denote the same instance: equal non-nil
// identifiers, or the very same object when unpersisted.
func SameEntity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	ma, mb := a.Meta(), b.Meta()
	if ma.ID == uuid.Nil || mb.ID == uuid.Nil {
		return false
	}
	return ma.ID == mb.ID
}
