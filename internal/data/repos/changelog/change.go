package changelog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type ChangeFilter struct {
	Entity   string
	EntityID uuid.UUID
	Page     int
	Size     int
}

type ChangeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, changes []*store.Change) error
	List(ctx context.Context, tx *gorm.DB, filter ChangeFilter) ([]*store.Change, int64, error)
}

type changeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeRepo(db *gorm.DB, baseLog *logger.Logger) ChangeRepo {
	repoLog := baseLog.With("repo", "ChangeRepo")
	return &changeRepo{db: db, log: repoLog}
}

func (cr *changeRepo) Create(ctx context.Context, tx *gorm.DB, changes []*store.Change) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(changes) == 0 {
		return nil
	}
	for _, c := range changes {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	return transaction.WithContext(ctx).Create(&changes).Error
}

func (cr *changeRepo) List(ctx context.Context, tx *gorm.DB, filter ChangeFilter) ([]*store.Change, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	q := transaction.WithContext(ctx).Model(&store.Change{})
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != uuid.Nil {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := []*store.Change{}
	find := q.Order("created_at DESC").Order("id")
	if filter.Size > 0 {
		find = find.Offset(filter.Page * filter.Size).Limit(filter.Size)
	}
	if err := find.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
