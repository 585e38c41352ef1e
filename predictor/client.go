// Package predictor calls the external PPH risk-prediction service.
package predictor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariebrainware/ai-maama/model"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultURL is the public prediction endpoint.
const DefaultURL = "https://pph-app.onrender.com/predict"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL string
	// Timeout bounds each attempt. Defaults to 10s.
	Timeout time.Duration
	// Retries is the number of extra attempts after a network failure.
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	// Transport replaces the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client posts clinical records to the prediction service.
type Client struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

// New returns a Client for opts.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}
	if opts.RetryMaxWait <= 0 {
		opts.RetryMaxWait = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(retryable).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}

	return &Client{http: rc, url: opts.URL, logger: opts.Logger}
}

// retryable allows another attempt only for transport failures, 429 and 5xx.
// A response that arrived with 2xx is never retried, even when it does not decode.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Predict sends one record and decodes the risk prediction. Failures are
// *model.NetworkError (transport, timeout, non-2xx) or *model.ParseError.
func (c *Client) Predict(ctx context.Context, record model.ClinicalRecord) (model.PredictionResult, error) {
	ctx, span := otel.Tracer("github.com/ariebrainware/ai-maama/predictor").Start(ctx, "predictor.Predict")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", c.url))

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(record).
		Post(c.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("prediction request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return model.PredictionResult{}, &model.NetworkError{Err: err}
	}

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode()),
		attribute.Int("predictor.attempts", resp.Request.Attempt),
	)
	if !resp.IsSuccess() {
		span.SetStatus(codes.Error, resp.Status())
		c.logger.Warn("prediction service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("attempts", resp.Request.Attempt),
		)
		return model.PredictionResult{}, &model.NetworkError{StatusCode: resp.StatusCode()}
	}

	result, err := model.DecodePredictionResult(resp.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		c.logger.Warn("prediction response did not decode", zap.Error(err))
		return model.PredictionResult{}, err
	}

	span.SetAttributes(attribute.String("predictor.risk_level", result.RiskLevel))
	c.logger.Debug("prediction received",
		zap.String("risk_level", result.RiskLevel),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
