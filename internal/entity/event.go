package entity

import (
	"time"
)

// Event is one scheduled economic release from the calendar feed, identified
// by currency, name, and scheduled time. Events are never deleted; new
// observations attach Indicator rows instead.
type Event struct {
	ID                uint        `json:"id" gorm:"primaryKey"`
	Currency          string      `json:"currency" gorm:"type:varchar(3);index"`
	EventName         string      `json:"event_name" gorm:"type:text"`
	ScheduledDatetime time.Time   `json:"scheduled_datetime" gorm:"index"`
	ImpactLevel       string      `json:"impact_level" gorm:"type:varchar(10)"`
	CreatedAt         time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	Indicators        []Indicator `json:"indicators,omitempty" gorm:"foreignKey:EventID"`
}

func (Event) TableName() string {
	return "events"
}
