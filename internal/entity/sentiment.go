package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Sentiment is one persisted per-currency verdict for an analysis week,
// upserted on (currency, week_start, week_end).
type Sentiment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Currency       string         `json:"currency" gorm:"type:varchar(3);index"`
	WeekStart      time.Time      `json:"week_start" gorm:"type:date;index"`
	WeekEnd        time.Time      `json:"week_end" gorm:"type:date"`
	FinalSentiment string         `json:"final_sentiment" gorm:"type:varchar(50)"`
	Details        datatypes.JSON `json:"details" gorm:"type:jsonb"`
	ComputedAt     time.Time      `json:"computed_at"`
}

func (Sentiment) TableName() string {
	return "sentiments"
}
