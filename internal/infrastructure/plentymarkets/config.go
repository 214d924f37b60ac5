package plentymarkets

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/go-playground/validator/v10"
)

const (
	// defaultMaxResponseSize caps a single response body (10MB)
	defaultMaxResponseSize = 10 * 1024 * 1024
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// Errors returned by the client
var (
	ErrInvalidConfig    = errors.New("plentymarkets: invalid client configuration")
	ErrRequestFailed    = errors.New("plentymarkets: request failed")
	ErrUnavailable      = errors.New("plentymarkets: service unavailable")
	ErrUnauthorized     = errors.New("plentymarkets: unauthorized")
	ErrInvalidResponse  = errors.New("plentymarkets: invalid response")
	ErrNotFound         = errors.New("plentymarkets: resource not found")
	ErrResponseTooLarge = errors.New("plentymarkets: response too large")
	ErrCircuitOpen      = errors.New("plentymarkets: circuit open")
)

// Config holds the settings of a REST client
type Config struct {
	// BaseURL is the shop URL, e.g. https://shop.example.com
	BaseURL  string `validate:"required,url"`
	Username string `validate:"required"`
	Password string `validate:"required"`

	Timeout time.Duration `validate:"gt=0"`
	// RateLimit is the number of requests per second; 0 disables limiting
	RateLimit float64 `validate:"gte=0"`
	RateBurst int     `validate:"gte=1"`
	// MaxRetries bounds the retries of a transient failure
	MaxRetries      int   `validate:"gte=0"`
	MaxResponseSize int64 `validate:"gt=0"`
	// BreakerFailures consecutive unavailable responses stop all requests
	// for BreakerCooldown
	BreakerFailures uint32        `validate:"gte=1"`
	BreakerCooldown time.Duration `validate:"gt=0"`
}

// NewConfig builds a client configuration from the application settings
func NewConfig(cfg config.PlentymarketsConfig) Config {
	c := Config{
		BaseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		Username:        cfg.Username,
		Password:        cfg.Password,
		Timeout:         cfg.Timeout,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		MaxRetries:      cfg.MaxRetries,
		MaxResponseSize: cfg.MaxResponseSize,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateBurst == 0 {
		c.RateBurst = 1
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = defaultMaxResponseSize
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = defaultBreakerCooldown
	}
	return c
}

// Validate checks the configuration
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
