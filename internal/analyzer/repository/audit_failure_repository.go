package repository

import (
	"context"

	"forex-sentiment-analyzer/internal/entity"

	"gorm.io/gorm"
)

// AuditFailureRepository records failed fetch/parse attempts for debugging.
type AuditFailureRepository interface {
	Create(ctx context.Context, failure *entity.AuditFailure) error
	FindUnresolved(ctx context.Context, limit int) ([]entity.AuditFailure, error)
}

// NewAuditFailureRepository creates a new GORM-based audit failure repository.
func NewAuditFailureRepository(db *gorm.DB) AuditFailureRepository {
	return &auditFailureRepository{db: db}
}

type auditFailureRepository struct {
	db *gorm.DB
}

func (r *auditFailureRepository) Create(ctx context.Context, failure *entity.AuditFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}

func (r *auditFailureRepository) FindUnresolved(ctx context.Context, limit int) ([]entity.AuditFailure, error) {
	var failures []entity.AuditFailure
	err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Find(&failures).Error
	if err != nil {
		return nil, err
	}
	return failures, nil
}
