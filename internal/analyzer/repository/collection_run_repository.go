package repository

import (
	"context"

	"forex-sentiment-analyzer/internal/entity"

	"gorm.io/gorm"
)

// CollectionRunRepository records reconciliation pass outcomes.
type CollectionRunRepository interface {
	Create(ctx context.Context, run *entity.CollectionRun) error
	FindRecent(ctx context.Context, limit int) ([]entity.CollectionRun, error)
}

// NewCollectionRunRepository creates a new GORM-based collection run repository.
func NewCollectionRunRepository(db *gorm.DB) CollectionRunRepository {
	return &collectionRunRepository{db: db}
}

type collectionRunRepository struct {
	db *gorm.DB
}

func (r *collectionRunRepository) Create(ctx context.Context, run *entity.CollectionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *collectionRunRepository) FindRecent(ctx context.Context, limit int) ([]entity.CollectionRun, error) {
	var runs []entity.CollectionRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
