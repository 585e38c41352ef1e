// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/ai-maama/config"
	"github.com/ariebrainware/ai-maama/endpoint"
	"github.com/ariebrainware/ai-maama/middleware"
	"github.com/ariebrainware/ai-maama/model"
	"github.com/ariebrainware/ai-maama/predictor"
	"github.com/ariebrainware/ai-maama/session"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	logger, err := util.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	util.SetLogger(logger)
	if cfg.DotenvErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(cfg.DotenvErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := util.InitTracer(ctx, util.TracingOptions{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.AppName,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		logger.Fatal("error initializing tracer", zap.Error(err))
	}

	db := connectAuditDB(logger)

	if _, err := config.ConnectRedis(); err != nil {
		logger.Warn("redis unavailable, submission rate limiting disabled", zap.Error(err))
	}

	geo, err := util.NewGeoLocator(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn("geoip database unavailable, locations will be empty", zap.Error(err))
		geo, _ = util.NewGeoLocator("")
	}
	defer geo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := util.NewMetrics("maama", reg)
	util.WatchGeoCache("maama", reg, geo)

	client := predictor.New(predictor.Options{
		URL:          cfg.PredictorURL,
		Timeout:      cfg.PredictorTimeout,
		Retries:      cfg.PredictorRetries,
		RetryWait:    cfg.PredictorRetryWait,
		RetryMaxWait: cfg.PredictorRetryMaxWait,
		Logger:       logger.Named("predictor"),
	})

	sessions, err := session.NewRegistry(session.Options{
		Secret:    []byte(cfg.SessionSecret),
		TTL:       cfg.SessionTTL,
		Predictor: client,
		BannerTTL: cfg.SuccessBannerTTL,
		Metrics:   metrics,
		Audit:     util.NewAuditLog(db, geo),
		Logger:    logger.Named("session"),
	})
	if err != nil {
		logger.Fatal("error creating session registry", zap.Error(err))
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := endpoint.NewRouter(endpoint.RouterOptions{
		AppName:  cfg.AppName,
		Sessions: sessions,
		Logger:   logger.Named("http"),
		Metrics:  metrics,
		Gatherer: reg,
		Geo:      geo,
		RateLimit: middleware.RateLimitConfig{
			Limit:  cfg.SubmitRateLimit,
			Window: cfg.SubmitRateWindow,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("predictor_url", cfg.PredictorURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("error starting server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	sessions.Shutdown()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", zap.Error(err))
	}
}

// connectAuditDB opens the audit database. The service keeps running without
// it; submission events are then only logged.
func connectAuditDB(logger *zap.Logger) *gorm.DB {
	db, err := config.ConnectMySQL()
	if err != nil {
		logger.Warn("audit database unavailable, submission events will only be logged", zap.Error(err))
		return nil
	}
	if err := db.AutoMigrate(&model.SubmissionLog{}); err != nil {
		logger.Warn("audit table migration failed", zap.Error(err))
		return nil
	}
	return db
}
