package robusthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

type Option func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries for the HTTP client.
func WithMaxRetries(maxRetries int) Option {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Timeout = timeout
	}
}

// WithLogger sets a custom logger for the HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(client *retryablehttp.Client) {
		client.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: logger})
	}
}

// WithTransport sets a custom transport for the HTTP client.
func WithTransport(transport http.RoundTripper) Option {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Transport = transport
	}
}

// Generates an HTTP client with general-purpose defaults around timeouts and
// retries. The returned client has the stdlib http.Client interface, but has
// Hashicorp retryablehttp logic internally, and an otel-instrumented pooled
// transport.
//
// This client will retry on connection errors and 5xx status (except 501),
// and will log intermediate failures at WARN level. Not suitable for
// classification provider calls: the fallback chain owns failure handling
// there, and a stage must fail fast rather than retry (see ProviderClient).
func NewClient(options ...Option) *http.Client {
	logger := LeveledSlog{inner: slog.Default().With("subsystem", "RobustHTTPClient")}
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(logger)
	retryClient.CheckRetry = DefaultRetryPolicy
	retryClient.HTTPClient.Timeout = 30 * time.Second

	for _, option := range options {
		option(retryClient)
	}

	return retryClient.StandardClient()
}

// ProviderClient is the client used by classification provider adapters: no
// retries (the moderation engine falls through stages instead of retrying
// within one) and no client-level timeout (the engine applies the per-stage
// timeout through the request context).
func ProviderClient(options ...Option) *http.Client {
	base := []Option{
		WithMaxRetries(0),
		WithTimeout(0),
	}
	return NewClient(append(base, options...)...)
}

// DefaultRetryPolicy is a custom wrapper around retryablehttp.DefaultRetryPolicy.
// It treats `429 Too Many Requests` as non-retryable, so the application can decide
// how to deal with rate-limiting.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// For use in local integration tests. Short timeouts, no retries, etc.
func TestingHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 1 * time.Second,
	}
}
