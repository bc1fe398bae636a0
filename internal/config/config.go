// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database connection, the page cache,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-invoice-dashboard/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-invoice-dashboard")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DatabaseConfig selects and parameterizes the relational store.
type DatabaseConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path (sqlite driver)
	URL    string // Postgres DSN (postgres driver)
}

// CacheConfig selects the page cache backend used for rendered listings.
type CacheConfig struct {
	Backend       string        // memory|redis
	TTL           time.Duration // lifetime of a cached page variant
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain window
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route

	// App
	DashboardPath string // base path of the dashboard routes
	InvoicesPath  string // listing path revalidated after every write

	// Storage
	DB       DatabaseConfig
	Cache    CacheConfig
	SeedDemo bool // insert demo customers and invoices into an empty store

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main: it panics on an invalid environment.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, fills defaults, normalizes aliases and
// validates the result. Every problem found is reported in one joined error.
func Load() (Config, error) {
	cfg := Config{
		DashboardPath:  normalizeBasePath(getenv("DASHBOARD_PATH", "/dashboard")),
		InvoicesPath:   normalizeBasePath(getenv("INVOICES_PATH", "/dashboard/invoices")),
		DB:             loadDatabase(),
		Cache:          loadCache(),
		SeedDemo:       getbool("SEED_DEMO", false),
		RateRPS:        getfloat("RATE_RPS", 5.0),
		RateBurst:      getint("RATE_BURST", 10),
		CORS:           CORSConfig{AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", ""))},
		Security:       SecurityConfig{EnableHSTS: getbool("ENABLE_HSTS", false), HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour)},
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		OTEL:           loadOTEL(),
	}
	loadServer(&cfg)
	loadLogging(&cfg)
	cfg.normalize()
	return cfg, cfg.Validate()
}

func loadServer(cfg *Config) {
	cfg.Port = getenv("PORT", "8080")
	cfg.ReadTimeout = getdur("READ_TIMEOUT", 15*time.Second)
	cfg.ReadHeaderTimeout = getdur("READ_HEADER_TIMEOUT", 10*time.Second)
	cfg.WriteTimeout = getdur("WRITE_TIMEOUT", 20*time.Second)
	cfg.IdleTimeout = getdur("IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownTimeout = getdur("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.MaxHeaderBytes = getint("MAX_HEADER_BYTES", 1<<20)
	cfg.GinMode = strings.ToLower(getenv("GIN_MODE", "release"))
}

func loadLogging(cfg *Config) {
	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.LogPretty = getbool("LOG_PRETTY", false)
	cfg.LogRedact = getbool("LOG_REDACT", true)
	cfg.SwaggerEnabled = getbool("SWAGGER_ENABLED", false)
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		Path:   getenv("DB_PATH", "app.db"),
		URL:    getenv("DATABASE_URL", ""),
	}
}

func loadCache() CacheConfig {
	return CacheConfig{
		Backend:       strings.ToLower(getenv("CACHE_BACKEND", "memory")),
		TTL:           getdur("CACHE_TTL", 10*time.Minute),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),
		RedisTLS:      getbool("REDIS_TLS", false),
	}
}

func loadOTEL() OTELConfig {
	return OTELConfig{
		Enabled:     getbool("OTEL_ENABLED", false),
		Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
		ServiceName: getenv("OTEL_SERVICE_NAME", "go-invoice-dashboard"),
		SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
	}
}

// normalize folds accepted aliases into their canonical spelling.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	switch c.DB.Driver {
	case "postgresql", "pg":
		c.DB.Driver = "postgres"
	case "sqlite3":
		c.DB.Driver = "sqlite"
	}
}

// Validate reports every invalid setting, joined, or nil.
func (c Config) Validate() error {
	var errs []error
	bad := func(msg string) { errs = append(errs, errors.New(msg)) }

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		bad("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		bad("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 || c.ShutdownTimeout <= 0 {
		bad("timeouts must be positive durations")
	}
	if c.MaxHeaderBytes <= 0 {
		bad("MAX_HEADER_BYTES must be > 0")
	}

	switch c.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(c.DB.Path) == "" {
			bad("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(c.DB.URL) == "" {
			bad("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		bad("DB_DRIVER must be one of: sqlite, postgres")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			bad("REDIS_ADDR must be set when CACHE_BACKEND=redis")
		}
	default:
		bad("CACHE_BACKEND must be one of: memory, redis")
	}
	if c.Cache.TTL <= 0 {
		bad("CACHE_TTL must be > 0")
	}
	if c.Cache.RedisDB < 0 {
		bad("REDIS_DB must be >= 0")
	}

	if c.InvoicesPath == "/" {
		bad("INVOICES_PATH must not be the root path")
	}
	if c.InvoicesPath == c.DashboardPath {
		bad("INVOICES_PATH and DASHBOARD_PATH must differ")
	}

	if c.RateRPS < 0 {
		bad("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		bad("RATE_BURST must be >= 1")
	}
	if c.Security.HSTSMaxAge < 0 {
		bad("HSTS_MAX_AGE must be >= 0")
	}
	if c.IdempotencyTTL <= 0 {
		bad("IDEMPOTENCY_TTL must be > 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		bad("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return errors.Join(errs...)
}

// env helpers: unset or unparsable values fall back to the default.

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch {
		case sysutil.IsTruthy(v):
			return true
		case sysutil.IsFalsy(v):
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
