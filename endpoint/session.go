package endpoint

import (
	"errors"
	"time"

	"github.com/ariebrainware/ai-maama/middleware"
	"github.com/ariebrainware/ai-maama/session"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionStore creates and closes form sessions.
type SessionStore interface {
	Create(meta session.Meta) (*session.Session, string, error)
	Resolve(token string) (*session.Session, error)
	Close(id string) error
	Len() int
}

type sessionResponse struct {
	Token     string        `json:"token"`
	SessionID string        `json:"session_id"`
	ExpiresAt time.Time     `json:"expires_at"`
	Fields    []FieldSchema `json:"fields"`
}

// CreateSession godoc
// @Summary      Start a form session
// @Description  Creates an empty form and submission controller and returns the session token
// @Tags         Session
// @Produce      json
// @Success      201 {object} util.APIResponse "Session created"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /session [post]
func CreateSession(sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, token, err := sessions.Create(session.Meta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		if err != nil {
			util.Log().Error("failed to create session", zap.Error(err))
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not start a session", Err: err})
			return
		}

		util.CallSuccessCreated(c, util.APISuccessParams{
			Msg: "Session created",
			Data: sessionResponse{
				Token:     token,
				SessionID: s.ID,
				ExpiresAt: s.ExpiresAt,
				Fields:    formSchema(),
			},
		})
	}
}

// CloseSession godoc
// @Summary      End a form session
// @Description  Cancels any in-flight submission and discards the form
// @Tags         Session
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Session closed"
// @Failure      401 {object} util.APIResponse "Invalid session token"
// @Router       /session [delete]
func CloseSession(sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := currentSession(c)
		if !ok {
			return
		}
		if err := sessions.Close(s.ID); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session expired or closed", Err: err})
				return
			}
			util.CallServerError(c, util.APIErrorParams{Msg: "Could not close the session", Err: err})
			return
		}
		if err := middleware.ResetRateLimit(c.Request.Context(), s.ID); err != nil {
			util.Log().Warn("failed to clear submission counter", zap.String("session_id", s.ID), zap.Error(err))
		}
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "Session closed", Data: gin.H{"session_id": s.ID}})
	}
}
