package util

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ariebrainware/ai-maama/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SubmissionLog{}))
	return db
}

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := Log()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestRecordSubmission_Persists(t *testing.T) {
	logs := captureLogs(t)
	db := setupAuditDB(t)
	geo, _ := NewGeoLocator("")
	audit := NewAuditLog(db, geo)

	audit.RecordSubmission(SubmissionEvent{
		SessionID: "sess-1",
		AttemptID: "att-1",
		Outcome:   model.OutcomeFailed,
		ErrorKind: "network",
		Duration:  1500 * time.Millisecond,
		IP:        "203.0.113.9",
		UserAgent: "Agent\nInjected",
		Details:   map[string]interface{}{"status_code": 502},
	})

	var entry model.SubmissionLog
	require.NoError(t, db.Where("attempt_id = ?", "att-1").First(&entry).Error)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Equal(t, model.OutcomeFailed, entry.Outcome)
	assert.Equal(t, "network", entry.ErrorKind)
	assert.Equal(t, int64(1500), entry.DurationMs)
	assert.Equal(t, "Agent Injected", entry.UserAgent)
	assert.JSONEq(t, `{"status_code":502}`, string(entry.Details))

	require.Equal(t, 1, logs.FilterMessage("submission finished").Len())
}

func TestRecordSubmission_NoDB(t *testing.T) {
	logs := captureLogs(t)
	NewAuditLog(nil, nil).RecordSubmission(SubmissionEvent{AttemptID: "a", Outcome: model.OutcomeSucceeded})

	var nilAudit *AuditLog
	nilAudit.RecordSubmission(SubmissionEvent{AttemptID: "b", Outcome: model.OutcomeCancelled})

	assert.Equal(t, 2, logs.Len())
}

func TestSanitizeLogValue(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeLogValue("a\nb\tc"))
	long := strings.Repeat("x", 250)
	got := SanitizeLogValue(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))

	// 199 ASCII bytes then two-byte runes straddling the cut
	ua := strings.Repeat("a", 199) + strings.Repeat("é", 10)
	got = SanitizeLogValue(ua)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199)+"...", got)
}
