// Package sendgrid provides the SendGrid v3 API client used by the datasource.
// It handles authentication, retries, rate limiting, and decoding of the
// email statistics endpoints.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sendgrid-grafana-plugin/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/sendgrid/rest"
	sgapi "github.com/sendgrid/sendgrid-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultHost is the public SendGrid API endpoint.
	DefaultHost = "https://api.sendgrid.com"

	statsEndpoint = "/v3/stats"
)

// ErrUnauthorized is wrapped by APIError when SendGrid rejects the API key.
var ErrUnauthorized = errors.New("sendgrid rejected the API key")

// Limiter throttles outgoing requests.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ClientConfig holds configuration options for the SendGrid client
type ClientConfig struct {
	APIKey     string
	Host       string
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
	UserAgent  string
	Limiter    Limiter
	HTTPClient *http.Client
}

// DefaultConfig returns a ClientConfig with sensible defaults
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Host:       DefaultHost,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
		UserAgent:  "sendgrid-grafana-plugin",
	}
}

// ClientError represents an error specifically related to SendGrid client operations.
type ClientError struct {
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sendgrid client error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("sendgrid client error: %s", e.Msg)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx answer from the SendGrid API.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sendgrid API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sendgrid API returned status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ClientFactory defines an interface for creating SendGrid clients.
type ClientFactory interface {
	CreateClient(config ClientConfig) (*Client, error)
}

// DefaultClientFactory is the concrete implementation that uses NewClient.
type DefaultClientFactory struct{}

// CreateClient implements the ClientFactory interface.
func (f *DefaultClientFactory) CreateClient(config ClientConfig) (*Client, error) {
	return NewClient(config)
}

// GetClient fills the API key into the default configuration and creates a
// client through factory.
func GetClient(apiKey string, factory ClientFactory) (*Client, error) {
	config := DefaultConfig()
	config.APIKey = apiKey
	return factory.CreateClient(config)
}

// Client talks to the SendGrid v3 API.
type Client struct {
	apiKey     string
	host       string
	userAgent  string
	retryCount int
	retryDelay time.Duration
	limiter    Limiter
	rest       *rest.Client
}

// NewClient validates config and returns a ready client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, &ClientError{Msg: "SendGrid API key cannot be empty"}
	}
	if config.RetryCount < 0 {
		return nil, &ClientError{Msg: fmt.Sprintf("retry count must not be negative, got %d", config.RetryCount)}
	}

	host := config.Host
	if host == "" {
		host = DefaultHost
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		apiKey:     config.APIKey,
		host:       host,
		userAgent:  config.UserAgent,
		retryCount: config.RetryCount,
		retryDelay: config.RetryDelay,
		limiter:    config.Limiter,
		rest:       &rest.Client{HTTPClient: httpClient},
	}, nil
}

// Host returns the base URL the client sends requests to.
func (c *Client) Host() string {
	return c.host
}

// GlobalStats fetches the account-wide email statistics for a date range.
func (c *Client) GlobalStats(ctx context.Context, req StatsRequest) ([]DailyStats, error) {
	if req.StartDate == "" {
		return nil, &ClientError{Msg: "start date is required for stats requests"}
	}

	request := sgapi.GetRequest(c.apiKey, statsEndpoint, c.host)
	request.Method = rest.Get
	request.QueryParams = req.queryParams()
	if c.userAgent != "" {
		request.Headers["User-Agent"] = c.userAgent
	}

	resp, err := c.send(ctx, request)
	if err != nil {
		return nil, err
	}

	var stats []DailyStats
	if err := json.Unmarshal([]byte(resp.Body), &stats); err != nil {
		return nil, &ClientError{Msg: "could not decode stats response", Err: err}
	}
	return stats, nil
}

// send performs request with rate limiting and retries on 429 and 5xx.
func (c *Client) send(ctx context.Context, request rest.Request) (*rest.Response, error) {
	var resp *rest.Response
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		r, err := c.rest.SendWithContext(ctx, request)
		if err != nil {
			metrics.RecordAPIRequest(0)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return &ClientError{Msg: "request to SendGrid failed", Err: err}
		}
		metrics.RecordAPIRequest(r.StatusCode)

		if isRetryable(r.StatusCode) {
			return newAPIError(r)
		}
		resp = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if c.retryDelay > 0 {
		b.InitialInterval = c.retryDelay
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retryCount)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func newAPIError(resp *rest.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body errorBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil && len(body.Errors) > 0 {
		apiErr.Message = body.Errors[0].Message
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr.Err = ErrUnauthorized
	}
	return apiErr
}
