package endpoint

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariebrainware/ai-maama/config"
	"github.com/ariebrainware/ai-maama/middleware"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/predictor"
	"github.com/ariebrainware/ai-maama/session"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubService stands in for the external prediction service.
type stubService struct {
	srv   *httptest.Server
	calls int32

	mu     sync.Mutex
	status int
	body   string
	gate   chan struct{}
}

func newStubService(t *testing.T, status int, body string) *stubService {
	t.Helper()
	s := &stubService{status: status, body: body}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.calls, 1)
		s.mu.Lock()
		gate, status, body := s.gate, s.status, s.body
		s.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubService) hold() chan struct{} {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	return gate
}

func (s *stubService) callCount() int32 {
	return atomic.LoadInt32(&s.calls)
}

type testServer struct {
	router   *gin.Engine
	registry *session.Registry
	db       *gorm.DB
	service  *stubService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.ConnectMySQL()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SubmissionLog{}))
	return db
}

func newTestServerWithURL(t *testing.T, url string, service *stubService) *testServer {
	t.Helper()
	db := setupTestDB(t)
	reg := prometheus.NewRegistry()
	metrics := util.NewMetrics("test", reg)

	registry, err := session.NewRegistry(session.Options{
		Secret:    []byte(config.LoadConfig().SessionSecret),
		TTL:       time.Minute,
		Predictor: predictor.New(predictor.Options{URL: url, Timeout: 2 * time.Second}),
		BannerTTL: time.Minute,
		Metrics:   metrics,
		Audit:     util.NewAuditLog(db, nil),
	})
	require.NoError(t, err)
	t.Cleanup(registry.Shutdown)

	router := NewRouter(RouterOptions{
		AppName:  "ai-maama",
		Sessions: registry,
		Metrics:  metrics,
		Gatherer: reg,
	})
	return &testServer{router: router, registry: registry, db: db, service: service}
}

func newTestServer(t *testing.T, status int, body string) *testServer {
	t.Helper()
	svc := newStubService(t, status, body)
	return newTestServerWithURL(t, svc.srv.URL, svc)
}

type requestSpec struct {
	method string
	path   string
	body   interface{}
	token  string
}

type apiResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Msg     string                 `json:"msg"`
	Data    map[string]interface{} `json:"data"`
}

func performRequest(t *testing.T, r http.Handler, spec requestSpec) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *strings.Reader
	switch v := spec.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(spec.method, spec.path, reader)
	req.Header.Set("Content-Type", "application/json")
	if spec.token != "" {
		req.Header.Set(middleware.SessionTokenHeader, spec.token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func (ts *testServer) newSession(t *testing.T) string {
	t.Helper()
	w, resp := performRequest(t, ts.router, requestSpec{method: http.MethodPost, path: "/session"})
	require.Equal(t, http.StatusCreated, w.Code)
	token, _ := resp.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func completeForm() map[string]string {
	return map[string]string{
		"Age":            "32",
		"SystolicBP":     "140",
		"DiastolicBP":    "90",
		"BS":             "7.5",
		"BodyTemp":       "98.6",
		"HeartRate":      "88",
		"BMI":            "27.1",
		"Anaemia":        "1",
		"Parity":         "3",
		"DeliveryMethod": "1",
		"HistoryPPH":     "1",
	}
}

func (ts *testServer) fillForm(t *testing.T, token string) {
	t.Helper()
	w, _ := performRequest(t, ts.router, requestSpec{method: http.MethodPatch, path: "/form", body: completeForm(), token: token})
	require.Equal(t, http.StatusOK, w.Code)
}

func nested(t *testing.T, m map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := m[key].(map[string]interface{})
	require.True(t, ok, "expected object at %q in %v", key, m)
	return v
}
