package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
	ActionLink   ChangeAction = "link"
	ActionUnlink ChangeAction = "unlink"
)

// Change is one committed write, recorded in the same transaction as the write.
type Change struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Entity    string         `gorm:"column:entity;not null;index:idx_change_entity" json:"entity"`
	EntityID  uuid.UUID      `gorm:"type:uuid;column:entity_id;not null;index:idx_change_entity" json:"entityId"`
	Action    ChangeAction   `gorm:"column:action;type:varchar(16);not null" json:"action"`
	Before    datatypes.JSON `gorm:"column:before" json:"before,omitempty"`
	After     datatypes.JSON `gorm:"column:after" json:"after,omitempty"`
	RequestID string         `gorm:"column:request_id" json:"requestId,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"createdAt"`
}

func (Change) TableName() string { return "entity_change" }
