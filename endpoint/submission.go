package endpoint

import (
	"errors"
	"strconv"

	"github.com/ariebrainware/ai-maama/submission"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
)

type submitResponse struct {
	AttemptID string            `json:"attempt_id"`
	Status    submission.Status `json:"status"`
}

type cancelResponse struct {
	Cancelled bool              `json:"cancelled"`
	Status    submission.Status `json:"status"`
}

// Submit godoc
// @Summary      Submit the form for a risk prediction
// @Description  Starts one prediction request for the current form values. With wait=true the response is sent once the request has finished.
// @Tags         Submission
// @Produce      json
// @Security     SessionToken
// @Param        wait query bool false "Block until the prediction has finished"
// @Success      202 {object} util.APIResponse "Submission started"
// @Success      200 {object} util.APIResponse "Submission finished (wait=true)"
// @Failure      400 {object} util.APIResponse "Invalid or missing fields"
// @Failure      409 {object} util.APIResponse "A submission is already in progress"
// @Failure      429 {object} util.APIResponse "Too many submissions"
// @Router       /submission [post]
func Submit(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	attemptID, err := s.Controller.Submit(c.Request.Context(), s.Form.Snapshot())
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrInFlight):
			util.CallConflict(c, util.APIErrorParams{
				Msg:  "A submission is already in progress",
				Err:  err,
				Data: s.Controller.Status(),
			})
		case errors.Is(err, submission.ErrClosed):
			util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session expired or closed", Err: err})
		case respondFieldError(c, err):
		default:
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not submit the form", Err: err})
		}
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		status, err := s.Controller.Wait(c.Request.Context())
		if err != nil {
			// client went away; the submission keeps running
			util.CallAccepted(c, util.APISuccessParams{Msg: "Submission started", Data: status})
			return
		}
		util.CallSuccessOK(c, util.APISuccessParams{Msg: finishedMessage(status), Data: status})
		return
	}

	c.Header("Location", "/submission")
	util.CallAccepted(c, util.APISuccessParams{
		Msg:  "Submission started",
		Data: submitResponse{AttemptID: attemptID, Status: s.Controller.Status()},
	})
}

func finishedMessage(s submission.Status) string {
	switch s.State {
	case submission.Succeeded:
		return "Prediction received"
	case submission.Failed:
		return "Prediction failed"
	}
	return "Submission cancelled"
}

// GetSubmission godoc
// @Summary      Submission status
// @Description  Current state, result, success banner flag and advice
// @Tags         Submission
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=submission.Status} "Status retrieved"
// @Router       /submission [get]
func GetSubmission(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Status retrieved", Data: s.Controller.Status()})
}

// CancelSubmission aborts the in-flight submission, if any.
func CancelSubmission(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	cancelled := s.Controller.Cancel()
	msg := "No submission in progress"
	if cancelled {
		msg = "Submission cancelled"
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  msg,
		Data: cancelResponse{Cancelled: cancelled, Status: s.Controller.Status()},
	})
}
