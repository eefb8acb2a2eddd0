package aggregates

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/pkg/dbctx"
	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
)

func snapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func newChange(entity string, id uuid.UUID, action store.ChangeAction, before, after any) *store.Change {
	return &store.Change{
		Entity:   entity,
		EntityID: id,
		Action:   action,
		Before:   snapshot(before),
		After:    snapshot(after),
	}
}

// recordChanges writes the change log on the caller's transaction.
func recordChanges(dbc dbctx.Context, repo repos.ChangeRepo, changes ...*store.Change) error {
	if repo == nil || len(changes) == 0 {
		return nil
	}
	requestID := ctxutil.RequestID(dbc.Ctx)
	for _, c := range changes {
		c.RequestID = requestID
	}
	return repo.Create(dbc.Ctx, dbc.Tx, changes)
}
