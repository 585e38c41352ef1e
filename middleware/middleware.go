package middleware

import (
	"errors"
	"net/http"

	"github.com/ariebrainware/ai-maama/session"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
)

const (
	// SessionTokenHeader carries the token returned by POST /session.
	SessionTokenHeader = "session-token"
	// SessionKey is the gin context key holding the resolved *session.Session.
	SessionKey = "session"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, "+SessionTokenHeader)
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Content-Type", "application/json")
}

// SessionResolver looks up the session behind a token.
type SessionResolver interface {
	Resolve(token string) (*session.Session, error)
}

// SessionRequired rejects requests without a valid session token and stores
// the resolved session in the context.
func SessionRequired(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token is required",
				Err: session.ErrInvalidToken,
			})
			c.Abort()
			return
		}

		s, err := sessions.Resolve(token)
		if err != nil {
			msg := "Invalid session token"
			if errors.Is(err, session.ErrNotFound) {
				msg = "Session expired or closed"
			}
			util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: msg, Err: err})
			c.Abort()
			return
		}

		c.Set(SessionKey, s)
		c.Next()
	}
}

// GetSession returns the session stored by SessionRequired.
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok && s != nil
}
