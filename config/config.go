package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const minSecretLength = 32

// Backend selectors.
const (
	BackendMemory   = "memory"
	BackendKratos   = "kratos"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds the application configuration
type Config struct {
	Port     string
	LogLevel string

	// BaseURL is the public origin used to build email callback links.
	BaseURL           string
	ConfirmationPath  string
	ResetCallbackPath string

	IdentityBackend string // kratos | memory
	KratosPublicURL string // Frontend API (port 4433)
	KratosAdminURL  string // Admin API (port 4434), optional
	KratosTimeout   time.Duration

	StoreBackend string // postgres | memory
	DatabaseURL  string

	RoleCacheBackend string // memory | redis
	RedisURL         string
	RoleCacheTTL     time.Duration
	RoleCacheSize    int

	SessionCookieName   string
	SessionCookieSecure bool

	CSRFSecret           string
	BackendTokenSecret   string
	BackendTokenIssuer   string
	BackendTokenAudience string
	BackendTokenTTL      time.Duration

	// InternalAuthSecret guards /api/internal; empty disables those routes.
	InternalAuthSecret string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults
// and validates it.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		ConfirmationPath:     getEnv("CONFIRMATION_PATH", "/auth/callback"),
		ResetCallbackPath:    getEnv("RESET_CALLBACK_PATH", "/update-password"),
		IdentityBackend:      strings.ToLower(getEnv("IDENTITY_BACKEND", BackendKratos)),
		KratosPublicURL:      getEnv("KRATOS_PUBLIC_URL", "http://kratos:4433"),
		KratosAdminURL:       getEnv("KRATOS_ADMIN_URL", ""),
		KratosTimeout:        p.duration("KRATOS_TIMEOUT", 5*time.Second),
		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RoleCacheBackend:     strings.ToLower(getEnv("ROLE_CACHE_BACKEND", BackendMemory)),
		RedisURL:             getEnv("REDIS_URL", ""),
		RoleCacheTTL:         p.duration("ROLE_CACHE_TTL", 5*time.Minute),
		RoleCacheSize:        p.integer("ROLE_CACHE_SIZE", 10000),
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", "repair_desk_session"),
		SessionCookieSecure:  p.boolean("SESSION_COOKIE_SECURE", false),
		CSRFSecret:           getEnv("CSRF_SECRET", ""),
		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "repair-desk"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "repair-desk-api"),
		BackendTokenTTL:      p.duration("BACKEND_TOKEN_TTL", 5*time.Minute),
		InternalAuthSecret:   getEnv("INTERNAL_AUTH_SECRET", ""),
		RateLimitRPS:         p.float("RATE_LIMIT_RPS", 0.5),
		RateLimitBurst:       p.integer("RATE_LIMIT_BURST", 5),
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL))
	}
	for name, path := range map[string]string{"CONFIRMATION_PATH": c.ConfirmationPath, "RESET_CALLBACK_PATH": c.ResetCallbackPath} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("%s must start with '/'", name))
		}
	}

	switch c.IdentityBackend {
	case BackendKratos:
		if c.KratosPublicURL == "" {
			errs = append(errs, errors.New("KRATOS_PUBLIC_URL is required for the kratos identity backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("IDENTITY_BACKEND must be kratos or memory, got %q", c.IdentityBackend))
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be postgres or memory, got %q", c.StoreBackend))
	}

	switch c.RoleCacheBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis role cache"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("ROLE_CACHE_BACKEND must be memory or redis, got %q", c.RoleCacheBackend))
	}

	if c.KratosTimeout <= 0 {
		errs = append(errs, errors.New("KRATOS_TIMEOUT must be positive"))
	}
	if c.RoleCacheTTL <= 0 {
		errs = append(errs, errors.New("ROLE_CACHE_TTL must be positive"))
	}
	if c.BackendTokenTTL <= 0 {
		errs = append(errs, errors.New("BACKEND_TOKEN_TTL must be positive"))
	}
	if len(c.CSRFSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("CSRF_SECRET must be at least %d characters", minSecretLength))
	}
	if len(c.BackendTokenSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("BACKEND_TOKEN_SECRET must be at least %d characters", minSecretLength))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME cannot be empty"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1"))
	}

	return errors.Join(errs...)
}

// ConfirmationURL is where sign-up confirmation emails link to.
func (c *Config) ConfirmationURL() string {
	return c.BaseURL + c.ConfirmationPath
}

// ResetCallbackURL is where password reset emails link to.
func (c *Config) ResetCallbackURL() string {
	return c.BaseURL + c.ResetCallbackPath
}

// getEnv retrieves an environment variable or returns a fallback value.
// KEY_FILE, when set, names a file holding the value.
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser reads typed variables and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s format: %w", key, err)
	}
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

func (p *parser) boolean(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return b
}

func (p *parser) integer(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}
