package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		call    func(c *gin.Context)
		status  int
		success bool
		errText string
	}{
		{name: "ok", call: func(c *gin.Context) { CallSuccessOK(c, APISuccessParams{Msg: "ok", Data: 1}) }, status: http.StatusOK, success: true},
		{name: "created", call: func(c *gin.Context) { CallSuccessCreated(c, APISuccessParams{Msg: "made"}) }, status: http.StatusCreated, success: true},
		{name: "accepted", call: func(c *gin.Context) { CallAccepted(c, APISuccessParams{Msg: "later"}) }, status: http.StatusAccepted, success: true},
		{name: "user error", call: func(c *gin.Context) { CallUserError(c, APIErrorParams{Msg: "bad", Err: errors.New("boom")}) }, status: http.StatusBadRequest, errText: "boom"},
		{name: "not found", call: func(c *gin.Context) { CallErrorNotFound(c, APIErrorParams{Msg: "gone", Err: errors.New("missing")}) }, status: http.StatusNotFound, errText: "missing"},
		{name: "unauthorized", call: func(c *gin.Context) { CallUserNotAuthorized(c, APIErrorParams{Msg: "who", Err: errors.New("no token")}) }, status: http.StatusUnauthorized, errText: "no token"},
		{name: "conflict", call: func(c *gin.Context) { CallConflict(c, APIErrorParams{Msg: "busy", Err: errors.New("in flight")}) }, status: http.StatusConflict, errText: "in flight"},
		{name: "too many", call: func(c *gin.Context) { CallTooManyRequests(c, APIErrorParams{Msg: "slow down"}) }, status: http.StatusTooManyRequests},
		{name: "server", call: func(c *gin.Context) { CallServerError(c, APIErrorParams{Msg: "oops", Err: errors.New("db")}) }, status: http.StatusInternalServerError, errText: "db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.call(c)

			assert.Equal(t, tt.status, w.Code)
			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.errText, resp.Error)
			if !tt.success {
				assert.NotNil(t, resp.Data)
			}
		})
	}
}
