package api

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/logging"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"
)

// HTTPOptions configures the shared HTTP client.
type HTTPOptions struct {
	Jar     http.CookieJar
	Timeout time.Duration

	// Retry enables transport-level retries on connection errors, 429 and
	// 5xx. Each transport attempt happens inside one logical attempt of the
	// dispatcher, so with Retry on a single Do may put more than two
	// requests on the wire. Off by default.
	Retry        bool
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger logging.Logger
}

// NewJar returns a cookie jar using the public suffix list.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewHTTPClient constructs the HTTP client with an optional retry policy.
func NewHTTPClient(o HTTPOptions) *http.Client {
	if !o.Retry {
		return &http.Client{Jar: o.Jar, Timeout: o.Timeout}
	}

	rc := retryablehttp.NewClient()
	if o.RetryMax > 0 {
		rc.RetryMax = o.RetryMax
	}
	if o.RetryWaitMin > 0 {
		rc.RetryWaitMin = o.RetryWaitMin
	}
	if o.RetryWaitMax > 0 {
		rc.RetryWaitMax = o.RetryWaitMax
	}
	// keep default CheckRetry (429/5xx, honours Retry-After) but hand the
	// last response back instead of an error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if o.Logger != nil {
		rc.Logger = retryLogger{log: o.Logger}
	}

	c := rc.StandardClient()
	c.Jar = o.Jar
	c.Timeout = o.Timeout
	return c
}

// retryLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type retryLogger struct {
	log logging.Logger
}

func (l retryLogger) Error(msg string, kv ...any) { l.log.Error(context.Background(), msg, kv...) }
func (l retryLogger) Info(msg string, kv ...any)  { l.log.Debug(context.Background(), msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...any) { l.log.Debug(context.Background(), msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...any)  { l.log.Warn(context.Background(), msg, kv...) }
