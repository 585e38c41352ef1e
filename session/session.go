// Package session keeps one form and one submission controller per client,
// addressed by a signed session token.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/ai-maama/form"
	"github.com/ariebrainware/ai-maama/submission"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long an untouched session is kept.
	DefaultTTL = 30 * time.Minute
	// DefaultTokenLifetime bounds a token regardless of activity.
	DefaultTokenLifetime = 12 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNotFound     = errors.New("session not found")
)

// Meta is the client information captured when a session is created.
type Meta struct {
	IP        string
	UserAgent string
}

// Session is the per-client workspace: the form being filled and the
// controller that submits it.
type Session struct {
	ID         string
	Form       *form.Form
	Controller *submission.Controller
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Claims is the payload of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Options configures a Registry.
type Options struct {
	Secret        []byte
	TTL           time.Duration
	TokenLifetime time.Duration
	Predictor     submission.Predictor
	BannerTTL     time.Duration
	Metrics       *util.Metrics
	Audit         *util.AuditLog
	Logger        *zap.Logger
}

// Registry holds live sessions in memory. Sessions idle for longer than the
// TTL are evicted and their controllers closed.
type Registry struct {
	secret        []byte
	ttl           time.Duration
	tokenLifetime time.Duration
	predictor     submission.Predictor
	bannerTTL     time.Duration
	metrics       *util.Metrics
	audit         *util.AuditLog
	logger        *zap.Logger
	store         *cache.Cache
}

// NewRegistry returns an empty registry. Without a secret, a random one is
// generated and tokens do not survive a restart.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Predictor == nil {
		return nil, errors.New("session registry requires a predictor")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TokenLifetime <= 0 {
		opts.TokenLifetime = DefaultTokenLifetime
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		if _, err := rand.Read(opts.Secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		opts.Logger.Warn("SESSION_SECRET not set, using a random secret")
	}

	r := &Registry{
		secret:        append([]byte(nil), opts.Secret...),
		ttl:           opts.TTL,
		tokenLifetime: opts.TokenLifetime,
		predictor:     opts.Predictor,
		bannerTTL:     opts.BannerTTL,
		metrics:       opts.Metrics,
		audit:         opts.Audit,
		logger:        opts.Logger,
		store:         cache.New(opts.TTL, cleanupInterval(opts.TTL)),
	}
	r.store.OnEvicted(r.evicted)
	return r, nil
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Create starts a new session and returns it with its signed token.
func (r *Registry) Create(meta Meta) (*Session, string, error) {
	now := time.Now()
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Form:      form.New(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(r.tokenLifetime),
	}

	token, err := r.sign(s)
	if err != nil {
		return nil, "", err
	}

	s.Controller = submission.NewController(r.predictor, submission.Options{
		BannerTTL: r.bannerTTL,
		Logger:    r.logger.With(zap.String("session_id", id)),
		Recorders: []submission.Recorder{&Recorder{
			SessionID: id,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Metrics:   r.metrics,
			Audit:     r.audit,
		}},
	})
	r.store.SetDefault(id, s)
	if r.metrics != nil {
		r.metrics.SessionsActive.Inc()
	}
	r.logger.Info("session created", zap.String("session_id", id), zap.String("ip", util.SanitizeLogValue(meta.IP)))
	return s, token, nil
}

func (r *Registry) sign(s *Session) (string, error) {
	claims := Claims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Resolve verifies token and returns its live session, extending the idle TTL.
func (r *Registry) Resolve(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return r.Get(claims.SessionID)
}

// Get returns the live session with id, extending its idle TTL.
func (r *Registry) Get(id string) (*Session, error) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := v.(*Session)
	// Replace fails once Close or expiry removed the key, so a closed session
	// is never written back. It does not fire the eviction callback.
	if err := r.store.Replace(id, s, cache.DefaultExpiration); err != nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close ends a session and cancels its in-flight submission.
func (r *Registry) Close(id string) error {
	if _, ok := r.store.Get(id); !ok {
		return ErrNotFound
	}
	r.store.Delete(id)
	return nil
}

// Len reports the number of sessions held, including expired ones not yet
// swept.
func (r *Registry) Len() int {
	return r.store.ItemCount()
}

// Shutdown closes every session. The registry stays usable afterwards.
func (r *Registry) Shutdown() {
	for id := range r.store.Items() {
		r.store.Delete(id)
	}
}

func (r *Registry) evicted(id string, v interface{}) {
	s, ok := v.(*Session)
	if !ok {
		return
	}
	s.Controller.Close()
	if r.metrics != nil {
		r.metrics.SessionsActive.Dec()
	}
	r.logger.Info("session closed", zap.String("session_id", id))
}
