package plentymarkets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeShop is a Plentymarkets REST API stub. Handlers registered on mux
// receive authenticated requests only.
type fakeShop struct {
	server *httptest.Server
	mux    *http.ServeMux
	logins atomic.Int32
	token  atomic.Value
}

func newFakeShop(t *testing.T) *fakeShop {
	t.Helper()
	shop := &fakeShop{mux: http.NewServeMux()}
	shop.token.Store("token-1")

	root := http.NewServeMux()
	root.HandleFunc("/rest/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		if r.PostForm.Get("username") != "api" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		shop.logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":86400,"access_token":"` + shop.token.Load().(string) + `"}`))
	})
	root.HandleFunc("/rest/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+shop.token.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		shop.mux.ServeHTTP(w, r)
	})

	shop.server = httptest.NewServer(root)
	t.Cleanup(shop.server.Close)
	return shop
}

func (s *fakeShop) handleJSON(pattern, body string) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func newTestClient(t *testing.T, shop *fakeShop, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := NewConfig(config.PlentymarketsConfig{
		BaseURL:    shop.server.URL + "/",
		Username:   "api",
		Password:   "secret",
		MaxRetries: 2,
	})
	for _, m := range mutate {
		m(&cfg)
	}
	client, err := NewClient(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	client.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return client
}

func TestConfig_Validate(t *testing.T) {
	valid := NewConfig(config.PlentymarketsConfig{
		BaseURL:  "https://shop.example.com/",
		Username: "api",
		Password: "secret",
	})
	require.NoError(t, valid.Validate())
	assert.Equal(t, "https://shop.example.com", valid.BaseURL)
	assert.Equal(t, 30*time.Second, valid.Timeout)
	assert.Equal(t, 1, valid.RateBurst)
	assert.Equal(t, int64(defaultMaxResponseSize), valid.MaxResponseSize)
	assert.Equal(t, uint32(defaultBreakerFailures), valid.BreakerFailures)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.BaseURL = "" }},
		{"malformed base url", func(c *Config) { c.BaseURL = "shop" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"no breaker cooldown", func(c *Config) { c.BreakerCooldown = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestClient_LogsInOnceAndReusesToken(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/availabilities", `[{"id":1,"averageDays":2}]`)
	client := newTestClient(t, shop)

	for i := 0; i < 3; i++ {
		_, err := client.get(context.Background(), "availabilities", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), shop.logins.Load())
}

func TestClient_RenewsExpiredToken(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/availabilities", `[]`)
	client := newTestClient(t, shop)

	now := time.Now()
	client.now = func() time.Time { return now }
	_, err := client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), shop.logins.Load())
}

func TestClient_RelogsAfterUnauthorized(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/availabilities", `[]`)
	client := newTestClient(t, shop, func(c *Config) { c.MaxRetries = 1 })

	_, err := client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	// the shop revokes the token
	shop.token.Store("token-2")
	_, err = client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), shop.logins.Load())
}

func TestClient_RelogsWithoutRetryBudget(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/availabilities", `[]`)
	client := newTestClient(t, shop, func(c *Config) { c.MaxRetries = 0 })

	_, err := client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	shop.token.Store("token-2")
	_, err = client.get(context.Background(), "availabilities", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), shop.logins.Load())
}

func TestClient_RepeatedUnauthorizedIsFinal(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/availabilities", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := newTestClient(t, shop)

	_, err := client.get(context.Background(), "availabilities", nil)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(2), shop.logins.Load())
}

func TestClient_RejectedLoginIsFinal(t *testing.T) {
	shop := newFakeShop(t)
	client := newTestClient(t, shop, func(c *Config) { c.Password = "wrong" })

	_, err := client.get(context.Background(), "availabilities", nil)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(0), shop.logins.Load())
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	client := newTestClient(t, shop)

	_, err := client.get(context.Background(), "items/units", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := newTestClient(t, shop)

	_, err := client.get(context.Background(), "items/units", nil)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_OpensCircuitAfterRepeatedFailures(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client := newTestClient(t, shop, func(c *Config) {
		c.MaxRetries = 5
		c.BreakerFailures = 2
		c.BreakerCooldown = time.Hour
	})

	_, err := client.get(context.Background(), "items/units", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())

	_, err = client.get(context.Background(), "items/units", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsDoNotOpenCircuit(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, shop, func(c *Config) { c.BreakerFailures = 1 })

	for range 3 {
		_, err := client.get(context.Background(), "items/units", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	shop := newFakeShop(t)
	var calls atomic.Int32
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})
	client := newTestClient(t, shop)

	_, err := client.get(context.Background(), "items/units", nil)

	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NotFound(t *testing.T) {
	shop := newFakeShop(t)
	client := newTestClient(t, shop)

	_, err := client.get(context.Background(), "items/404", nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_RejectsOversizedResponse(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/items/units", `[`+strings.Repeat(`{"id":1},`, 100)+`{"id":2}]`)
	client := newTestClient(t, shop, func(c *Config) { c.MaxResponseSize = 128 })

	_, err := client.get(context.Background(), "items/units", nil)

	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_StopsOnCancelledContext(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/items/units", `[]`)
	client := newTestClient(t, shop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.get(ctx, "items/units", nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetList_FollowsPages(t *testing.T) {
	shop := newFakeShop(t)
	shop.mux.HandleFunc("/rest/items/units", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "250", r.URL.Query().Get("itemsPerPage"))
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"page":1,"isLastPage":false,"entries":[{"id":1,"unitOfMeasurement":"C62"},{"id":2,"unitOfMeasurement":"GRM"}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"page":2,"isLastPage":true,"entries":[{"id":3,"unitOfMeasurement":"MLT"}]}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	client := newTestClient(t, shop)

	units, err := NewUnitAPI(client).FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "MLT", units[2].UnitOfMeasurement)
}

func TestGetList_InvalidJSON(t *testing.T) {
	shop := newFakeShop(t)
	shop.handleJSON("/rest/items/barcodes", `{"entries":`)
	client := newTestClient(t, shop)

	_, err := NewBarcodeAPI(client).FindAll(context.Background())

	assert.ErrorIs(t, err, ErrInvalidResponse)
}
