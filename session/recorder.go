package session

import (
	"github.com/ariebrainware/ai-maama/advisory"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/submission"
	"github.com/ariebrainware/ai-maama/util"
)

// Recorder feeds submission attempts of one session into metrics and the
// audit log. Both sinks are optional.
type Recorder struct {
	SessionID string
	IP        string
	UserAgent string
	Metrics   *util.Metrics
	Audit     *util.AuditLog
}

func (r *Recorder) AttemptStarted(string) {
	r.Metrics.AttemptStarted()
}

func (r *Recorder) AttemptFinished(a submission.Attempt) {
	tier := ""
	if a.Outcome == model.OutcomeSucceeded {
		tier = string(advisory.TierOf(a.Result.RiskLevel))
	}
	r.Metrics.AttemptFinished(a.Outcome, string(a.ErrorKind), tier, a.Duration())

	details := map[string]interface{}{
		"started_at":  a.StartedAt,
		"finished_at": a.FinishedAt,
	}
	if a.Err != nil {
		details["error"] = a.Err.Error()
	}
	r.Audit.RecordSubmission(util.SubmissionEvent{
		SessionID: r.SessionID,
		AttemptID: a.ID,
		Outcome:   a.Outcome,
		ErrorKind: string(a.ErrorKind),
		Duration:  a.Duration(),
		IP:        r.IP,
		UserAgent: r.UserAgent,
		Details:   details,
	})
}
