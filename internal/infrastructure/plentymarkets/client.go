package plentymarkets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// itemsPerPage is requested for every paginated list
	itemsPerPage = 250
	// tokenExpiryMargin renews the access token before it runs out
	tokenExpiryMargin = time.Minute
	// defaultTokenLifetime applies when the login response has no expiry
	defaultTokenLifetime = time.Hour
)

// Client is a REST client for the Plentymarkets API. It logs in with the
// configured credentials, keeps the bearer token until it expires, limits
// the request rate and retries transient failures with exponential backoff.
// Repeated unavailability opens a circuit breaker that fails requests fast
// until the cooldown ends.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger of the client
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client. The configuration is validated.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.RateBurst),
		logger:     zap.NewNop(),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("plentymarkets")
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "plentymarkets",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// get requests a REST resource below /rest and returns the response body.
// A 401 renews the token and resends once within the same attempt, so the
// re-login never spends a transient-failure retry.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.endpoint(path, query)

	var body []byte
	operation := func() error {
		status, payload, err := c.authorizedGet(ctx, endpoint)
		if err != nil {
			c.logger.Debug("Request failed", zap.String("path", path), zap.Error(err))
			return err
		}
		if status == http.StatusUnauthorized {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, path))
		}
		if err := statusError(status, path); err != nil {
			c.logger.Debug("Request failed",
				zap.String("path", path),
				zap.Int("status", status),
			)
			return err
		}

		body = payload
		return nil
	}

	if err := backoff.Retry(operation, c.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// authorizedGet sends one GET with the current token. When the token is
// rejected it logs in again and resends; a second 401 is returned as is.
func (c *Client) authorizedGet(ctx context.Context, endpoint string) (int, []byte, error) {
	for relogged := false; ; relogged = true {
		token, err := c.accessToken(ctx)
		if err != nil {
			return 0, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return 0, nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrRequestFailed, err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		status, payload, err := c.guardedSend(req)
		if err != nil || status != http.StatusUnauthorized || relogged {
			return status, payload, err
		}
		c.invalidateToken(token)
		c.logger.Debug("Access token rejected, logging in again")
	}
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.cfg.MaxRetries)), ctx)
}

// guardedSend sends req through the circuit breaker. Transport failures,
// rate limiting and server errors count as breaker failures and are
// returned as ErrUnavailable.
func (c *Client) guardedSend(req *http.Request) (int, []byte, error) {
	var (
		status  int
		payload []byte
	)
	_, err := c.breaker.Execute(func() (any, error) {
		var err error
		status, payload, err = c.send(req)
		if err == nil && unavailableStatus(status) {
			err = fmt.Errorf("%w: HTTP %d %s", ErrUnavailable, status, req.URL.Path)
		}
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrCircuitOpen, err))
	}
	return status, payload, err
}

// send performs one request within the rate limit and reads the body
func (c *Client) send(req *http.Request) (int, []byte, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, backoff.Permanent(ctx.Err())
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseSize+1))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}
	if int64(len(body)) > c.cfg.MaxResponseSize {
		return resp.StatusCode, nil, backoff.Permanent(
			fmt.Errorf("%w: more than %d bytes from %s", ErrResponseTooLarge, c.cfg.MaxResponseSize, req.URL.Path))
	}

	return resp.StatusCode, body, nil
}

// statusError maps a response status to an error. Rate limiting and server
// errors are retried, any other client error is final.
func statusError(status int, path string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case unavailableStatus(status):
		return fmt.Errorf("%w: HTTP %d %s", ErrUnavailable, status, path)
	case status == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, path))
	default:
		return backoff.Permanent(fmt.Errorf("%w: HTTP %d %s", ErrRequestFailed, status, path))
	}
}

func unavailableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

type loginResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns the current bearer token and logs in when there is
// none or it is about to expire
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/rest/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: %v", ErrRequestFailed, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.send(req)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", backoff.Permanent(fmt.Errorf("%w: login rejected with HTTP %d", ErrUnauthorized, status))
	}
	if err := statusError(status, "login"); err != nil {
		return "", err
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: login: %v", ErrInvalidResponse, err))
	}
	if login.AccessToken == "" {
		return "", backoff.Permanent(fmt.Errorf("%w: login returned no access token", ErrInvalidResponse))
	}

	lifetime := defaultTokenLifetime
	if login.ExpiresIn > 0 {
		lifetime = time.Duration(login.ExpiresIn) * time.Second
	}
	c.token = login.AccessToken
	c.tokenExpiry = c.now().Add(lifetime - tokenExpiryMargin)

	c.logger.Debug("Logged in", zap.Duration("token_lifetime", lifetime))
	return c.token, nil
}

// invalidateToken drops token unless a newer one was obtained meanwhile
func (c *Client) invalidateToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	endpoint := c.cfg.BaseURL + "/rest/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// page is one page of a paginated list
type page[T any] struct {
	Page       int  `json:"page"`
	IsLastPage bool `json:"isLastPage"`
	Entries    []T  `json:"entries"`
}

// getList reads every entry of a list resource. Resources answering with a
// plain array are read in one request, paginated resources page by page.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	entries := make([]T, 0)
	for pageNumber := 1; ; pageNumber++ {
		q := maps.Clone(query)
		if q == nil {
			q = url.Values{}
		}
		q.Set("page", strconv.Itoa(pageNumber))
		q.Set("itemsPerPage", strconv.Itoa(itemsPerPage))

		body, err := c.get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			var list []T
			if err := json.Unmarshal(body, &list); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
			}
			return list, nil
		}

		var p page[T]
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
		}
		entries = append(entries, p.Entries...)
		if p.IsLastPage || len(p.Entries) == 0 {
			return entries, nil
		}
	}
}

// getOne reads a single resource
func getOne[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	}
	return &v, nil
}
