package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestSubmissionLog_CreateAndQuery(t *testing.T) {
	db := setupTestDB(t, "submission_log", &SubmissionLog{})

	entries := []SubmissionLog{
		{SessionID: "s-1", AttemptID: "a-1", Outcome: OutcomeSucceeded, DurationMs: 120},
		{SessionID: "s-1", AttemptID: "a-2", Outcome: OutcomeFailed, ErrorKind: "network", DurationMs: 10000,
			Details: datatypes.JSON(`{"status_code":503}`)},
		{SessionID: "s-2", AttemptID: "a-3", Outcome: OutcomeCancelled},
	}
	for i := range entries {
		assert.NoError(t, db.Create(&entries[i]).Error)
		assert.NotZero(t, entries[i].ID)
	}

	var forSession []SubmissionLog
	assert.NoError(t, db.Where("session_id = ?", "s-1").Order("id").Find(&forSession).Error)
	assert.Len(t, forSession, 2)
	assert.Equal(t, "network", forSession[1].ErrorKind)
	assert.JSONEq(t, `{"status_code":503}`, string(forSession[1].Details))
}

func TestSubmissionLog_AttemptIDUnique(t *testing.T) {
	db := setupTestDB(t, "submission_log_unique", &SubmissionLog{})

	assert.NoError(t, db.Create(&SubmissionLog{SessionID: "s", AttemptID: "dup", Outcome: OutcomeSucceeded}).Error)
	assert.Error(t, db.Create(&SubmissionLog{SessionID: "s", AttemptID: "dup", Outcome: OutcomeFailed}).Error)
}
