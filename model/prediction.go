package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PredictionResult is the decoded response of the risk-prediction service.
// Both values are kept as opaque text.
type PredictionResult struct {
	RiskLevel   string `json:"riskLevel"`
	Probability string `json:"probability"`
}

// ErrorDisplayResult is what the user sees instead of raw error detail.
var ErrorDisplayResult = PredictionResult{
	RiskLevel:   "Error",
	Probability: "Try again later.",
}

type predictionWire struct {
	RiskLevel   *json.RawMessage `json:"riskLevel"`
	Probability *json.RawMessage `json:"probability"`
}

// DecodePredictionResult decodes a service response body. riskLevel must be
// a JSON string; probability may be a string or a number, numbers keep their
// literal text. Any other shape yields a *ParseError.
func DecodePredictionResult(body []byte) (PredictionResult, error) {
	var wire predictionWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return PredictionResult{}, &ParseError{Body: body, Err: err}
	}
	if wire.RiskLevel == nil {
		return PredictionResult{}, &ParseError{Body: body, Err: errors.New("missing riskLevel")}
	}
	if wire.Probability == nil {
		return PredictionResult{}, &ParseError{Body: body, Err: errors.New("missing probability")}
	}

	var risk string
	if err := json.Unmarshal(*wire.RiskLevel, &risk); err != nil {
		return PredictionResult{}, &ParseError{Body: body, Err: fmt.Errorf("riskLevel is not text: %w", err)}
	}
	prob, err := decodeProbability(*wire.Probability)
	if err != nil {
		return PredictionResult{}, &ParseError{Body: body, Err: err}
	}
	return PredictionResult{RiskLevel: risk, Probability: prob}, nil
}

func decodeProbability(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("probability: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("probability is neither text nor number: %w", err)
	}
	return n.String(), nil
}

// NetworkError covers transport failures, timeouts and non-2xx responses.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prediction service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction service unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means a response arrived but did not decode into a PredictionResult.
type ParseError struct {
	Body []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed prediction response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
