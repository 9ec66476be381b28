package repository

import (
	"context"
	"time"

	"forex-sentiment-analyzer/internal/entity"

	"gorm.io/gorm"
)

// IndicatorRepository defines the interface for indicator observations.
type IndicatorRepository interface {
	Create(ctx context.Context, indicator *entity.Indicator) error
	FindByID(ctx context.Context, id uint) (*entity.Indicator, error)
	FindLatestByEventID(ctx context.Context, eventID uint) (*entity.Indicator, error)
	UpdateActual(ctx context.Context, id uint, actualValue float64, collectedAt time.Time) error
}

// NewIndicatorRepository creates a new GORM-based indicator repository.
func NewIndicatorRepository(db *gorm.DB) IndicatorRepository {
	return &indicatorRepository{db: db}
}

type indicatorRepository struct {
	db *gorm.DB
}

func (r *indicatorRepository) Create(ctx context.Context, indicator *entity.Indicator) error {
	return r.db.WithContext(ctx).Create(indicator).Error
}

func (r *indicatorRepository) FindByID(ctx context.Context, id uint) (*entity.Indicator, error) {
	var indicator entity.Indicator
	if err := r.db.WithContext(ctx).First(&indicator, id).Error; err != nil {
		return nil, err
	}
	return &indicator, nil
}

// FindLatestByEventID returns the most recently collected indicator row for
// an event.
func (r *indicatorRepository) FindLatestByEventID(ctx context.Context, eventID uint) (*entity.Indicator, error) {
	var indicator entity.Indicator
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("timestamp_collected DESC").
		First(&indicator).Error
	if err != nil {
		return nil, err
	}
	return &indicator, nil
}

// UpdateActual back-fills the actual-value fields onto a single indicator row
// inside a transaction, so a failed write never leaves a partial update
// visible to concurrent readers.
func (r *indicatorRepository) UpdateActual(ctx context.Context, id uint, actualValue float64, collectedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var indicator entity.Indicator
		if err := tx.First(&indicator, id).Error; err != nil {
			return err
		}

		return tx.Model(&indicator).Updates(map[string]interface{}{
			"actual_value":        actualValue,
			"actual_collected_at": collectedAt,
			"is_actual_available": true,
		}).Error
	})
}
