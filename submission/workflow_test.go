package submission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ariebrainware/ai-maama/advisory"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/predictor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// predictionServer is a stand-in for the external PPH service.
func predictionServer(t *testing.T, status int, body string, gate chan struct{}) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
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
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestWorkflow_HighRiskPrediction(t *testing.T) {
	srv, calls := predictionServer(t, http.StatusOK, `{"riskLevel":"High","probability":"0.82"}`, nil)
	c := NewController(predictor.New(predictor.Options{URL: srv.URL}), Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st := waitTerminal(t, c)

	assert.Equal(t, Succeeded, st.State)
	assert.Equal(t, model.PredictionResult{RiskLevel: "High", Probability: "0.82"}, *st.Result)
	assert.Equal(t, advisory.HighRiskAdvice, st.Advice)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestWorkflow_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewController(predictor.New(predictor.Options{URL: url}), Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st := waitTerminal(t, c)

	assert.Equal(t, Failed, st.State)
	assert.Equal(t, ErrorKindNetwork, st.Error.Kind)
	assert.Equal(t, "Error", st.Display.RiskLevel)
}

func TestWorkflow_UnexpectedShape(t *testing.T) {
	srv, _ := predictionServer(t, http.StatusOK, `{"unexpected":"shape"}`, nil)
	c := NewController(predictor.New(predictor.Options{URL: srv.URL}), Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st := waitTerminal(t, c)

	assert.Equal(t, Failed, st.State)
	assert.Equal(t, ErrorKindParse, st.Error.Kind)
	assert.Nil(t, st.Result)
}

func TestWorkflow_ServerErrorIsNetworkFailure(t *testing.T) {
	srv, _ := predictionServer(t, http.StatusServiceUnavailable, `{"riskLevel":"Low","probability":"0.1"}`, nil)
	c := NewController(predictor.New(predictor.Options{URL: srv.URL}), Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st := waitTerminal(t, c)

	assert.Equal(t, Failed, st.State)
	assert.Equal(t, ErrorKindNetwork, st.Error.Kind)
}

func TestWorkflow_OverlappingSubmitsHitTransportOnce(t *testing.T) {
	gate := make(chan struct{})
	srv, calls := predictionServer(t, http.StatusOK, `{"riskLevel":"Low","probability":"0.3"}`, gate)
	c := NewController(predictor.New(predictor.Options{URL: srv.URL}), Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), validRecord())
	assert.ErrorIs(t, err, ErrInFlight)

	close(gate)
	st := waitTerminal(t, c)
	assert.Equal(t, Succeeded, st.State)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestWorkflow_SequentialSubmissionsAreIndependent(t *testing.T) {
	var n int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			_, _ = w.Write([]byte(`{"riskLevel":"High","probability":"0.82"}`))
			return
		}
		_, _ = w.Write([]byte(`{"riskLevel":"High","probability":"0.64"}`))
	}))
	defer srv.Close()

	c := NewController(predictor.New(predictor.Options{URL: srv.URL}), Options{})
	defer c.Close()

	first, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st1 := waitTerminal(t, c)

	second, err := c.Submit(context.Background(), validRecord())
	require.NoError(t, err)
	st2 := waitTerminal(t, c)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "0.82", st1.Result.Probability)
	assert.Equal(t, "0.64", st2.Result.Probability)
	assert.Equal(t, Succeeded, st1.State)
	assert.Equal(t, Succeeded, st2.State)
}
