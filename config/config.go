package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUSER  string `json:"dbuser"`
	DBPass  string `json:"-"`

	PredictorURL          string        `json:"predictor_url"`
	PredictorTimeout      time.Duration `json:"predictor_timeout"`
	PredictorRetries      int           `json:"predictor_retries"`
	PredictorRetryWait    time.Duration `json:"predictor_retry_wait"`
	PredictorRetryMaxWait time.Duration `json:"predictor_retry_max_wait"`
	SuccessBannerTTL      time.Duration `json:"success_banner_ttl"`

	SessionSecret    string        `json:"-"`
	SessionTTL       time.Duration `json:"session_ttl"`
	SubmitRateLimit  int           `json:"submit_rate_limit"`
	SubmitRateWindow time.Duration `json:"submit_rate_window"`

	RedisAddr string `json:"redis_addr"`
	RedisPass string `json:"-"`
	RedisDB   int    `json:"redis_db"`

	LogLevel          string  `json:"log_level"`
	LogFormat         string  `json:"log_format"`
	TracingEnabled    bool    `json:"tracing_enabled"`
	OTLPEndpoint      string  `json:"otlp_endpoint"`
	TracingSampleRate float64 `json:"tracing_sample_rate"`
	GeoIPDBPath       string  `json:"geoip_db_path"`

	// DotenvErr is set when no .env file could be read. The environment is
	// still used.
	DotenvErr error `json:"-"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		dotenvErr := godotenv.Load()
		config = FromEnv()
		config.DotenvErr = dotenvErr
	})
	return config
}

// ResetConfigForTest drops the cached configuration so the next LoadConfig
// reads the environment again.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

// FromEnv builds a Config from the current process environment. Unset or
// malformed values fall back to their defaults.
func FromEnv() *Config {
	appPort, err := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
	if err != nil || appPort == 0 {
		appPort = 8080
	}
	dbPort, err := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
	if err != nil {
		dbPort = 3306
	}

	return &Config{
		AppName: envString("APPNAME", "ai-maama"),
		AppEnv:  envString("APPENV", "development"),
		AppPort: uint16(appPort),
		GinMode: envString("GINMODE", "debug"),
		DBHost:  os.Getenv("DBHOST"),
		DBPort:  uint16(dbPort),
		DBName:  os.Getenv("DBNAME"),
		DBUSER:  os.Getenv("DBUSER"),
		DBPass:  os.Getenv("DBPASS"),

		PredictorURL:          envString("PREDICTOR_URL", "https://pph-app.onrender.com/predict"),
		PredictorTimeout:      envDuration("PREDICTOR_TIMEOUT", 10*time.Second),
		PredictorRetries:      envInt("PREDICTOR_RETRIES", 0),
		PredictorRetryWait:    envDuration("PREDICTOR_RETRY_WAIT", 500*time.Millisecond),
		PredictorRetryMaxWait: envDuration("PREDICTOR_RETRY_MAX_WAIT", 5*time.Second),
		SuccessBannerTTL:      envDuration("SUCCESS_BANNER_TTL", 3*time.Second),

		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionTTL:       envDuration("SESSION_TTL", 30*time.Minute),
		SubmitRateLimit:  envInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: envDuration("SUBMIT_RATE_WINDOW", time.Minute),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   envInt("REDIS_DB", 0),

		LogLevel:          envString("LOG_LEVEL", "info"),
		LogFormat:         envString("LOG_FORMAT", "console"),
		TracingEnabled:    envBool("TRACING_ENABLED", false),
		OTLPEndpoint:      os.Getenv("OTLP_ENDPOINT"),
		TracingSampleRate: envFloat("TRACING_SAMPLE_RATE", 1.0),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 || v > 1 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
// In the test environment an in-memory SQLite database is used instead.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	if cfg.AppEnv == "test" {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	}

	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}
