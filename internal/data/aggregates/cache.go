package aggregates

import (
	"context"

	"github.com/google/uuid"
)

// Cache holds eagerly loaded single-entity reads. Implementations swallow their
// own transport failures; a miss is always safe.
//
// Every entry carries an invalidation stamp that Delete advances. A reader takes
// Stamp before loading from the store and passes it to Set, which drops the value
// when a write has invalidated the entry in between.
type Cache interface {
	Get(ctx context.Context, entity string, id uuid.UUID, dst any) bool
	Stamp(ctx context.Context, entity string, id uuid.UUID) int64
	Set(ctx context.Context, entity string, id uuid.UUID, v any, stamp int64)
	Delete(ctx context.Context, entity string, ids ...uuid.UUID)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, uuid.UUID, any) bool   { return false }
func (noopCache) Stamp(context.Context, string, uuid.UUID) int64     { return 0 }
func (noopCache) Set(context.Context, string, uuid.UUID, any, int64) {}
func (noopCache) Delete(context.Context, string, ...uuid.UUID)       {}

// touched collects the entities a write changed so their cache entries can be
// dropped once the transaction has settled.
type touched map[string][]uuid.UUID

func (t touched) add(entity string, ids ...uuid.UUID) {
	t[entity] = append(t[entity], ids...)
}

func (t touched) flush(ctx context.Context, c Cache) {
	for entity, ids := range t {
		if len(ids) > 0 {
			c.Delete(ctx, entity, ids...)
		}
	}
}
