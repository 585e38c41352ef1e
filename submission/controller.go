// Package submission drives one prediction request per submit action and
// exposes the resulting state to the presentation layer.
package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ariebrainware/ai-maama/advisory"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBannerTTL is how long the success banner stays visible.
const DefaultBannerTTL = 3 * time.Second

var (
	// ErrInFlight is returned by Submit while a request is already running.
	ErrInFlight = errors.New("submission already in progress")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("submission controller closed")
)

// Predictor is the external risk-prediction service.
type Predictor interface {
	Predict(ctx context.Context, record model.ClinicalRecord) (model.PredictionResult, error)
}

// Recorder observes attempt boundaries, for metrics and auditing.
type Recorder interface {
	AttemptStarted(id string)
	AttemptFinished(a Attempt)
}

// Attempt summarizes one finished (or aborted) prediction request.
type Attempt struct {
	ID         string
	Outcome    string
	ErrorKind  ErrorKind
	Err        error
	Result     model.PredictionResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall-clock time the attempt took.
func (a Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Options configures a Controller.
type Options struct {
	BannerTTL time.Duration
	Logger    *zap.Logger
	Recorders []Recorder
}

// Controller owns the Idle -> Submitting -> Succeeded|Failed lifecycle.
// At most one request is in flight at a time.
type Controller struct {
	predictor Predictor
	bannerTTL time.Duration
	logger    *zap.Logger
	recorders []Recorder

	mu          sync.Mutex
	state       State
	attemptID   string
	result      *model.PredictionResult
	failure     *ErrorDetail
	banner      bool
	bannerTimer *time.Timer
	cancel      context.CancelFunc
	done        chan struct{}
	startedAt   time.Time
	finishedAt  time.Time
	closed      bool
	observers   map[int]func(Status)
	nextObs     int
}

// NewController returns an Idle controller that submits through p.
func NewController(p Predictor, opts Options) *Controller {
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = DefaultBannerTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		predictor: p,
		bannerTTL: opts.BannerTTL,
		logger:    opts.Logger,
		recorders: opts.Recorders,
		observers: make(map[int]func(Status)),
	}
}

// Submit validates record and starts exactly one prediction request for it.
// It returns the attempt id without waiting for the response. ctx only
// contributes values (trace spans); the request is aborted through Cancel or
// Close, not by ctx ending.
//
// Errors: ErrClosed, ErrInFlight, or model.ValidationErrors. None of them
// changes the controller state.
func (c *Controller) Submit(ctx context.Context, record model.ClinicalRecord) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.state == Submitting {
		c.mu.Unlock()
		return "", ErrInFlight
	}
	if _, err := record.Validate(); err != nil {
		c.mu.Unlock()
		return "", err
	}

	c.stopBannerLocked()
	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.state = Submitting
	c.attemptID = id
	c.result = nil
	c.failure = nil
	c.cancel = cancel
	c.done = make(chan struct{})
	c.startedAt = time.Now()
	c.finishedAt = time.Time{}
	status, observers := c.statusLocked(), c.observersLocked()
	c.mu.Unlock()

	c.logger.Info("submission started", zap.String("attempt_id", id))
	for _, r := range c.recorders {
		r.AttemptStarted(id)
	}
	notify(observers, status)

	go c.run(runCtx, id, record)
	return id, nil
}

func (c *Controller) run(ctx context.Context, id string, record model.ClinicalRecord) {
	result, err := c.predictor.Predict(ctx, record)
	c.finish(id, result, err)
}

func (c *Controller) finish(id string, result model.PredictionResult, err error) {
	c.mu.Lock()
	if c.state != Submitting || c.attemptID != id {
		// cancelled or closed while the request was running
		c.mu.Unlock()
		c.logger.Debug("discarding stale prediction response", zap.String("attempt_id", id))
		return
	}

	now := time.Now()
	c.cancel()
	c.cancel = nil
	attempt := Attempt{ID: id, StartedAt: c.startedAt, FinishedAt: now}
	if err == nil {
		res := result
		c.state = Succeeded
		c.result = &res
		c.banner = true
		c.bannerTimer = time.AfterFunc(c.bannerTTL, func() { c.clearBanner(id) })
		attempt.Outcome = model.OutcomeSucceeded
		attempt.Result = result
	} else {
		c.state = Failed
		c.failure = classify(err)
		attempt.Outcome = model.OutcomeFailed
		attempt.ErrorKind = c.failure.Kind
		attempt.Err = err
	}
	c.finishedAt = now
	done := c.done
	c.done = nil
	status, observers := c.statusLocked(), c.observersLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("submission failed",
			zap.String("attempt_id", id),
			zap.String("kind", string(attempt.ErrorKind)),
			zap.Error(err),
		)
	} else {
		c.logger.Info("submission succeeded",
			zap.String("attempt_id", id),
			zap.String("risk_level", result.RiskLevel),
			zap.Duration("elapsed", attempt.Duration()),
		)
	}
	c.recordFinished(attempt)
	notify(observers, status)
	close(done)
}

// Cancel aborts an in-flight request and returns the controller to Idle.
// The late response, if any, is discarded. It reports whether anything was cancelled.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	attempt, done, ok := c.abortLocked()
	if !ok {
		c.mu.Unlock()
		return false
	}
	status, observers := c.statusLocked(), c.observersLocked()
	c.mu.Unlock()

	c.logger.Info("submission cancelled", zap.String("attempt_id", attempt.ID))
	c.recordFinished(attempt)
	notify(observers, status)
	close(done)
	return true
}

// Close cancels any in-flight request, stops the banner timer and rejects
// later submits. No state change is applied after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopBannerLocked()
	attempt, done, aborted := c.abortLocked()
	c.observers = make(map[int]func(Status))
	c.mu.Unlock()

	if aborted {
		c.logger.Info("submission abandoned on close", zap.String("attempt_id", attempt.ID))
		c.recordFinished(attempt)
		close(done)
	}
}

// abortLocked moves an in-flight attempt back to Idle. The caller closes the
// returned channel once recorders and observers have run.
func (c *Controller) abortLocked() (Attempt, chan struct{}, bool) {
	if c.state != Submitting {
		return Attempt{}, nil, false
	}
	now := time.Now()
	c.cancel()
	c.cancel = nil
	attempt := Attempt{
		ID:         c.attemptID,
		Outcome:    model.OutcomeCancelled,
		StartedAt:  c.startedAt,
		FinishedAt: now,
	}
	c.state = Idle
	c.finishedAt = now
	done := c.done
	c.done = nil
	return attempt, done, true
}

func (c *Controller) clearBanner(id string) {
	c.mu.Lock()
	if c.attemptID != id || !c.banner {
		c.mu.Unlock()
		return
	}
	c.banner = false
	c.bannerTimer = nil
	status, observers := c.statusLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(observers, status)
}

func (c *Controller) stopBannerLocked() {
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	c.banner = false
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Wait blocks until no request is in flight and returns the status at that
// point. Recorders and observers of the finished attempt have run by then.
func (c *Controller) Wait(ctx context.Context) (Status, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Status(), ctx.Err()
		}
	}
	return c.Status(), nil
}

// OnChange registers fn to be called after every state or banner change.
func (c *Controller) OnChange(fn func(Status)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) statusLocked() Status {
	s := Status{
		State:             c.state,
		AttemptID:         c.attemptID,
		ShowSuccessBanner: c.banner,
	}
	if !c.startedAt.IsZero() {
		t := c.startedAt
		s.StartedAt = &t
	}
	if !c.finishedAt.IsZero() {
		t := c.finishedAt
		s.FinishedAt = &t
	}
	switch c.state {
	case Succeeded:
		res := *c.result
		display := res
		s.Result = &res
		s.Display = &display
		s.Advice = advisory.AdviseFor(res.RiskLevel)
	case Failed:
		detail := *c.failure
		display := model.ErrorDisplayResult
		s.Error = &detail
		s.Display = &display
		s.Advice = advisory.AdviseFor(display.RiskLevel)
	}
	return s
}

func (c *Controller) observersLocked() []func(Status) {
	out := make([]func(Status), 0, len(c.observers))
	for _, fn := range c.observers {
		out = append(out, fn)
	}
	return out
}

func (c *Controller) recordFinished(a Attempt) {
	for _, r := range c.recorders {
		r.AttemptFinished(a)
	}
}

func notify(observers []func(Status), s Status) {
	for _, fn := range observers {
		fn(s)
	}
}
