package blog

import (
	"os"
	"strconv"

	"github.com/goliatone/go-errors"
)

// DefaultTokenHeader carries the auth token in both directions
const DefaultTokenHeader = "x-auth"

// EnvConfig is the concrete Config loaded from the environment
type EnvConfig struct {
	SigningKey        string
	Issuer            string
	TokenHeader       string
	MaxActiveSessions int
	Port              string
	DatabaseDSN       string
	Debug             bool
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from the environment. The signing key is
// mandatory; everything else has a workable default.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{
		SigningKey:  os.Getenv("AUTH_SIGNING_KEY"),
		Issuer:      os.Getenv("AUTH_ISSUER"),
		TokenHeader: os.Getenv("AUTH_TOKEN_HEADER"),
		Port:        os.Getenv("PORT"),
		DatabaseDSN: os.Getenv("DB_DSN"),
		Debug:       os.Getenv("DEBUG") == "true",
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("AUTH_SIGNING_KEY is required", errors.CategoryValidation)
	}

	if raw := os.Getenv("AUTH_MAX_SESSIONS"); raw != "" {
		max, err := strconv.Atoi(raw)
		if err != nil || max < 0 {
			return nil, errors.New("AUTH_MAX_SESSIONS must be a non-negative integer", errors.CategoryValidation)
		}
		cfg.MaxActiveSessions = max
	}

	if cfg.TokenHeader == "" {
		cfg.TokenHeader = DefaultTokenHeader
	}

	if cfg.Port == "" {
		cfg.Port = "4000"
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:blog.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetTokenHeader() string {
	return c.TokenHeader
}

func (c *EnvConfig) GetMaxActiveSessions() int {
	return c.MaxActiveSessions
}
