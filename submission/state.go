package submission

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/ai-maama/model"
)

// State of a Controller.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:       "idle",
	Submitting: "submitting",
	Succeeded:  "succeeded",
	Failed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorKind classifies a failed attempt.
type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindParse   ErrorKind = "parse"
)

// ErrorDetail is the failure carried by the Failed state. Message is safe to
// show to users; Err keeps the cause for logs.
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

const (
	networkMessage = "Could not reach the prediction service. Please try again."
	parseMessage   = "The prediction service sent an unexpected response. Please try again."
)

func classify(err error) *ErrorDetail {
	var perr *model.ParseError
	if errors.As(err, &perr) {
		return &ErrorDetail{Kind: ErrorKindParse, Message: parseMessage, Err: err}
	}
	return &ErrorDetail{Kind: ErrorKindNetwork, Message: networkMessage, Err: err}
}

// Status is a point-in-time view of a Controller for the presentation layer.
// Display is what the result panel shows: the prediction on success and
// model.ErrorDisplayResult on failure. Advice is set in both terminal states.
type Status struct {
	State             State                   `json:"state"`
	AttemptID         string                  `json:"attempt_id,omitempty"`
	Result            *model.PredictionResult `json:"result,omitempty"`
	Error             *ErrorDetail            `json:"error,omitempty"`
	ShowSuccessBanner bool                    `json:"show_success_banner"`
	Display           *model.PredictionResult `json:"display,omitempty"`
	Advice            string                  `json:"advice,omitempty"`
	StartedAt         *time.Time              `json:"started_at,omitempty"`
	FinishedAt        *time.Time              `json:"finished_at,omitempty"`
}
