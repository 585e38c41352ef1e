package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission outcomes recorded in the audit log.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// SubmissionLog is one finished prediction attempt. It deliberately carries
// no clinical values and no risk tier.
type SubmissionLog struct {
	gorm.Model
	SessionID  string `json:"session_id" gorm:"column:session_id;type:varchar(36);index"`
	AttemptID  string `json:"attempt_id" gorm:"column:attempt_id;type:varchar(36);uniqueIndex"`
	Outcome    string `json:"outcome" gorm:"column:outcome;type:varchar(16);index"`
	ErrorKind  string `json:"error_kind" gorm:"column:error_kind;type:varchar(16)"`
	DurationMs int64  `json:"duration_ms" gorm:"column:duration_ms"`
	IP         string `json:"ip" gorm:"column:ip;type:varchar(45)"`
	// Location stores city and country in the format "City/Country" when available.
	Location  string         `json:"location" gorm:"column:location;type:varchar(255)"`
	UserAgent string         `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Details   datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}
