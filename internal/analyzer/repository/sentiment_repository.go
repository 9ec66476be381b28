package repository

import (
	"context"
	"time"

	"forex-sentiment-analyzer/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SentimentRepository defines the interface for persisted weekly verdicts.
type SentimentRepository interface {
	Upsert(ctx context.Context, sentiment *entity.Sentiment) error
	FindByWeek(ctx context.Context, weekStart, weekEnd time.Time) ([]entity.Sentiment, error)
	FindLatestByCurrency(ctx context.Context, currency string) (*entity.Sentiment, error)
}

// NewSentimentRepository creates a new GORM-based sentiment repository.
func NewSentimentRepository(db *gorm.DB) SentimentRepository {
	return &sentimentRepository{db: db}
}

type sentimentRepository struct {
	db *gorm.DB
}

// Upsert writes one verdict row keyed by (currency, week_start, week_end),
// updating it if one already exists for the window.
func (r *sentimentRepository) Upsert(ctx context.Context, sentiment *entity.Sentiment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "currency"},
			{Name: "week_start"},
			{Name: "week_end"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"final_sentiment", "details", "computed_at"}),
	}).Create(sentiment).Error
}

func (r *sentimentRepository) FindByWeek(ctx context.Context, weekStart, weekEnd time.Time) ([]entity.Sentiment, error) {
	var sentiments []entity.Sentiment
	err := r.db.WithContext(ctx).
		Where("week_start = ? AND week_end = ?", weekStart, weekEnd).
		Order("currency").
		Find(&sentiments).Error
	if err != nil {
		return nil, err
	}
	return sentiments, nil
}

func (r *sentimentRepository) FindLatestByCurrency(ctx context.Context, currency string) (*entity.Sentiment, error) {
	var sentiment entity.Sentiment
	err := r.db.WithContext(ctx).
		Where("currency = ?", currency).
		Order("week_start DESC").
		First(&sentiment).Error
	if err != nil {
		return nil, err
	}
	return &sentiment, nil
}
