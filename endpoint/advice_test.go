package endpoint

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/ariebrainware/ai-maama/advisory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAdvice(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, `{}`)

	tests := []struct {
		level  string
		tier   string
		advice string
	}{
		{"Low", "low", advisory.LowRiskAdvice},
		{"MEDIUM", "medium", advisory.MediumRiskAdvice},
		{"high", "high", advisory.HighRiskAdvice},
		{" High", "unknown", advisory.FallbackAdvice},
		{"Error", "unknown", advisory.FallbackAdvice},
		{"", "unknown", advisory.FallbackAdvice},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			w, resp := performRequest(t, ts.router, requestSpec{
				method: http.MethodGet,
				path:   "/advice?riskLevel=" + url.QueryEscape(tt.level),
			})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.tier, resp.Data["tier"])
			assert.Equal(t, tt.advice, resp.Data["advice"])
		})
	}
}
