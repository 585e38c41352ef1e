package endpoint

import (
	"fmt"
	"net/http"

	"github.com/ariebrainware/ai-maama/middleware"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RouterOptions carries the dependencies of the HTTP API.
type RouterOptions struct {
	AppName   string
	Sessions  SessionStore
	Logger    *zap.Logger
	Metrics   *util.Metrics
	Gatherer  prometheus.Gatherer
	Geo       *util.GeoLocator
	RateLimit middleware.RateLimitConfig
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestLogger(opts.Logger, opts.Metrics, opts.Geo))

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", opts.AppName),
		})
	})
	router.GET("/healthz", func(c *gin.Context) {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "ok", Data: gin.H{"sessions": opts.Sessions.Len()}})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(util.MetricsHandler(opts.Gatherer)))
	}
	router.GET("/advice", GetAdvice)
	router.POST("/session", CreateSession(opts.Sessions))

	auth := router.Group("/", middleware.SessionRequired(opts.Sessions))
	auth.DELETE("/session", CloseSession(opts.Sessions))

	auth.GET("/form", GetForm)
	auth.PUT("/form/:field", SetField)
	auth.PATCH("/form", SetFields)
	auth.DELETE("/form", ResetForm)
	auth.POST("/form/validate", ValidateForm)

	auth.POST("/submission", middleware.SubmitRateLimiter(opts.RateLimit), Submit)
	auth.GET("/submission", GetSubmission)
	auth.DELETE("/submission", CancelSubmission)

	return router
}
