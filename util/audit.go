package util

import (
	"encoding/json"
	"time"

	"github.com/ariebrainware/ai-maama/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionEvent describes one finished prediction attempt for the audit trail.
type SubmissionEvent struct {
	SessionID string
	AttemptID string
	Outcome   string
	ErrorKind string
	Duration  time.Duration
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

// AuditLog writes submission events to the log and, when a database is
// configured, to the submission_logs table.
type AuditLog struct {
	db  *gorm.DB
	geo *GeoLocator
}

// NewAuditLog returns an audit log. db and geo may both be nil.
func NewAuditLog(db *gorm.DB, geo *GeoLocator) *AuditLog {
	return &AuditLog{db: db, geo: geo}
}

// RecordSubmission logs ev and persists it best-effort; a failed write is
// logged and otherwise ignored.
func (a *AuditLog) RecordSubmission(ev SubmissionEvent) {
	Log().Info("submission finished",
		zap.String("session_id", ev.SessionID),
		zap.String("attempt_id", ev.AttemptID),
		zap.String("outcome", ev.Outcome),
		zap.String("error_kind", ev.ErrorKind),
		zap.Duration("duration", ev.Duration),
		zap.String("ip", SanitizeLogValue(ev.IP)),
	)

	if a == nil || a.db == nil {
		return
	}

	var details datatypes.JSON
	if ev.Details != nil {
		if b, err := json.Marshal(ev.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SubmissionLog{
		SessionID:  ev.SessionID,
		AttemptID:  ev.AttemptID,
		Outcome:    ev.Outcome,
		ErrorKind:  ev.ErrorKind,
		DurationMs: ev.Duration.Milliseconds(),
		IP:         SanitizeLogValue(ev.IP),
		Location:   SanitizeLogValue(a.geo.Locate(ev.IP)),
		UserAgent:  SanitizeLogValue(ev.UserAgent),
		Details:    details,
	}
	if err := a.db.Create(&entry).Error; err != nil {
		Log().Warn("failed to persist submission event", zap.Error(err))
	}
}
