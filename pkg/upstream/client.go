// Package upstream provides the HTTP client for the marketplace API,
// attaching a fresh signed credential to every call.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/storebridge/market-gateway/pkg/logging"
)

// Prometheus metrics for marketplace requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_requests_total",
		Help: "Total marketplace requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_upstream_request_duration_seconds",
		Help:    "Marketplace request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_errors_total",
		Help: "Total marketplace errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of an upstream error body is retained.
const maxErrorBody = 4 << 10

// Issuer produces the signed credential attached to each request.
type Issuer interface {
	Issue(method string) (string, error)
}

// Config holds the marketplace client configuration.
type Config struct {
	// BaseURL of the marketplace API, e.g. "https://api.marketplace.example".
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// Timeout bounds a single request. A timeout is an upstream failure
	// like any other; there are no retries.
	Timeout time.Duration

	// RequestsPerSecond limits the outbound request rate. Zero disables
	// limiting.
	RequestsPerSecond float64

	// Burst is the limiter burst size (defaults to 1 when limiting is on).
	Burst int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		UserAgent:         "market-gateway/1.0",
		Timeout:           10 * time.Second,
		RequestsPerSecond: 10,
		Burst:             5,
	}
}

// Client is the marketplace API client. Each request is a single attempt:
// failures escalate to the coordinator's fallback path instead of retrying.
type Client struct {
	httpClient *http.Client
	issuer     Issuer
	limiter    *rate.Limiter
	cfg        Config
	logger     zerolog.Logger
}

// New creates a marketplace client.
func New(cfg Config, issuer Issuer) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("credential issuer is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		issuer:     issuer,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logging.NewLogger("upstream"),
	}, nil
}

// Search fetches a page of products matching the query.
func (c *Client) Search(ctx context.Context, q Query) ([]byte, error) {
	return c.get(ctx, "/api/v2/products", q.Values())
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/api/v2/products/"+url.PathEscape(id), nil)
}

// get performs one credentialed GET against the marketplace. Exactly one
// attempt: non-2xx statuses, network errors, and timeouts all return *Error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	// A fresh credential per call: the verifier's acceptance window is
	// five seconds and replayed nonces are rejected.
	credential, err := c.issuer.Issue(http.MethodGet)
	if err != nil {
		return nil, err
	}

	target := c.cfg.BaseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", endpoint).Msg("Executing marketplace request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues("network").Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Marketplace request failed")
		return nil, &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorsTotal.WithLabelValues(classify(resp.StatusCode)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Msg("Marketplace returned error status")
		return nil, &Error{StatusCode: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues("network").Inc()
		return nil, &Error{StatusCode: resp.StatusCode, Message: "read body", Err: err}
	}

	return body, nil
}

// classify buckets a status code for the error metric.
func classify(status int) string {
	switch {
	case status >= 400 && status < 500:
		return "client"
	case status >= 500:
		return "server"
	default:
		return "other"
	}
}
