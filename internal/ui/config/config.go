package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/jub0bs/cors"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Config holds the portal settings loaded from the environment
type Config struct {
	Environment         string        `env:"ENVIRONMENT,default=dev"`
	Host                string        `env:"HOST,default=0.0.0.0"`
	Port                int           `env:"PORT,default=3000"`
	LogLevel            string        `env:"LOG_LEVEL,default=debug"`
	ReadTimeout         time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout        time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout         time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	APIBaseURL          string        `env:"API_BASE_URL,default=/api"`
	APIOrigin           string        `env:"API_ORIGIN,default=http://localhost:8080"`
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS,separator=|"`
	LoginRateLimitRPS   int32         `env:"LOGIN_RATE_LIMIT_RPS,default=5"`
	LoginRateLimitBurst int32         `env:"LOGIN_RATE_LIMIT_BURST,default=10"`
	SessionResolveWait  time.Duration `env:"SESSION_RESOLVE_WAIT,default=2s"`
	RefreshTokenMaxAge  time.Duration `env:"REFRESH_TOKEN_MAX_AGE,default=720h"`
	Locale              string        `env:"LOCALE,default=pt-BR"`
	Currency            string        `env:"CURRENCY,default=BRL"`
}

// CORSConfigs holds the CORS middleware instances for the different endpoint types
type CORSConfigs struct {
	Public *cors.Middleware
}

const (
	AccessTokenDetailsCookieName = "access_details_token"
	RefreshTokenCookieName       = "refresh_token"
	RefreshClaimCookieName       = "refresh_claim"

	// ServerShutdownTimeout is the timeout for graceful server shutdown
	ServerShutdownTimeout = 10 * time.Second

	CORSMaxAgeInSeconds = 86400
)

// DefaultAPIBaseURL is used when API_BASE_URL is unset.
const DefaultAPIBaseURL = "/api"

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"perf":    true,
	"prod":    true,
	"staging": true,
}

// NewConfig loads the environment variables and validates the result.
func NewConfig() (*Config, *CORSConfigs, error) {
	var cfg Config

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	corsConfigs, err := createCORSConfigs(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("CORS configuration failed: %w", err)
	}

	return &cfg, corsConfigs, nil
}

func validateConfig(cfg *Config) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid environment '%s'. Valid environments: dev, test, perf, staging, prod", cfg.Environment)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", cfg.IdleTimeout)
	}
	if cfg.SessionResolveWait <= 0 {
		return fmt.Errorf("session resolve wait must be positive, got %v", cfg.SessionResolveWait)
	}
	if cfg.RefreshTokenMaxAge <= 0 {
		return fmt.Errorf("refresh token max age must be positive, got %v", cfg.RefreshTokenMaxAge)
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")

	if !IsAbsoluteURL(cfg.APIBaseURL) {
		if !strings.HasPrefix(cfg.APIBaseURL, "/") {
			return fmt.Errorf("API_BASE_URL must be an absolute URL or a path starting with '/': %s", cfg.APIBaseURL)
		}
		u, err := url.ParseRequestURI(cfg.APIOrigin)
		if err != nil || u.Hostname() == "" {
			return fmt.Errorf("API_ORIGIN is not a valid URL: %s", cfg.APIOrigin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("API_ORIGIN should not include a path: %s", cfg.APIOrigin)
		}
		cfg.APIOrigin = strings.TrimSuffix(cfg.APIOrigin, "/")
	}

	if cfg.Environment == "prod" && IsAbsoluteURL(cfg.APIBaseURL) && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must use https in production: %s", cfg.APIBaseURL)
	}

	if _, err := language.Parse(cfg.Locale); err != nil {
		return fmt.Errorf("invalid LOCALE '%s': %w", cfg.Locale, err)
	}
	if _, err := currency.ParseISO(cfg.Currency); err != nil {
		return fmt.Errorf("invalid CURRENCY '%s': %w", cfg.Currency, err)
	}

	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		if len(cfg.AllowedOrigins) > 0 && cfg.AllowedOrigins[0] == "*" {
			return fmt.Errorf("ALLOWED_ORIGINS must not be set to '*' in %v", cfg.Environment)
		}
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return nil
}

// IsAbsoluteURL reports whether rawURL carries a scheme and host.
func IsAbsoluteURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func createCORSConfigs(cfg *Config) (*CORSConfigs, error) {
	origins := make([]string, len(cfg.AllowedOrigins))
	for i, origin := range cfg.AllowedOrigins {
		origins[i] = strings.TrimSpace(origin)
	}

	publicMiddleware, err := cors.NewMiddleware(cors.Config{
		Origins: origins,
		Methods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
		},
		RequestHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Requested-With",
		},
		MaxAgeInSeconds: CORSMaxAgeInSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create public CORS middleware: %w", err)
	}

	return &CORSConfigs{Public: publicMiddleware}, nil
}
