package entity

import (
	"time"
)

// AuditFailure records a calendar fetch or parse attempt that failed, kept
// for debugging scraper breakage against feed layout changes.
type AuditFailure struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	URL          string    `json:"url" gorm:"type:text"`
	ErrorType    string    `json:"error_type" gorm:"type:varchar(50);index"`
	ErrorMessage string    `json:"error_message" gorm:"type:text"`
	HTMLSnippet  string    `json:"html_snippet" gorm:"type:text"`
	Timestamp    time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
	RetryCount   int       `json:"retry_count" gorm:"default:0"`
	Resolved     bool      `json:"resolved" gorm:"default:false;index"`
}

func (AuditFailure) TableName() string {
	return "audit_failures"
}
