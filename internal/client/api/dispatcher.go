package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/client/apierror"
	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/client/refresh"
	"github.com/dmitrijs2005/cmsclient/internal/logging"
	"github.com/dmitrijs2005/cmsclient/internal/redact"
	"github.com/google/uuid"
)

const (
	DefaultAuthPrefix = "/v1/auth/"
	RequestIDHeader   = "X-Request-Id"

	// drainLimit bounds how much of a discarded response is read so the
	// connection can be reused.
	drainLimit = 64 << 10
)

// Request describes one logical API call.
type Request struct {
	Method string
	// Path is resolved against the base URL; it may carry a query.
	Path   string
	Body   Body
	Header http.Header
	// OmitCookies sends the request without the cookie jar.
	OmitCookies bool
}

// Refresher yields the outcome of the current refresh epoch.
type Refresher interface {
	Refresh(ctx context.Context) refresh.Outcome
}

type Dispatcher struct {
	base       *url.URL
	store      credentials.Store
	refresher  Refresher
	client     *http.Client
	bare       *http.Client
	authPrefix string
	purge      bool
	normalizer *apierror.Normalizer
	log        logging.Logger
}

type Option func(*Dispatcher)

// WithHTTPClient sets the client used for requests. Its Jar carries the
// session cookies.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithAuthPrefix sets the path prefix whose 401s are returned without a
// refresh attempt.
func WithAuthPrefix(p string) Option {
	return func(d *Dispatcher) {
		if p != "" {
			d.authPrefix = p
		}
	}
}

// WithPurgeOnRejectedRetry clears the store when the retry after a
// successful refresh is rejected again.
func WithPurgeOnRejectedRetry(purge bool) Option {
	return func(d *Dispatcher) { d.purge = purge }
}

func WithNormalizer(n *apierror.Normalizer) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.normalizer = n
		}
	}
}

func NewDispatcher(baseURL string, store credentials.Store, refresher Refresher, opts ...Option) (*Dispatcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if store == nil || refresher == nil {
		return nil, fmt.Errorf("dispatcher needs a credential store and a refresher")
	}

	d := &Dispatcher{
		base:       base,
		store:      store,
		refresher:  refresher,
		authPrefix: DefaultAuthPrefix,
		normalizer: apierror.NewNormalizer(nil),
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.client == nil {
		jar, err := NewJar()
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		d.client = NewHTTPClient(HTTPOptions{Jar: jar})
	}
	bare := *d.client
	bare.Jar = nil
	d.bare = &bare

	return d, nil
}

// BaseURL is the URL paths are resolved against.
func (d *Dispatcher) BaseURL() *url.URL {
	u := *d.base
	return &u
}

// Normalizer is the error normalizer used by DecodeJSON.
func (d *Dispatcher) Normalizer() *apierror.Normalizer { return d.normalizer }

// Do sends r, refreshing the credential and retrying once on 401. The
// returned response is the caller's to close. A 401 comes back unchanged
// when the path is exempt or the refresh fails; the retry's response is
// returned whatever its status.
func (d *Dispatcher) Do(ctx context.Context, r Request) (*http.Response, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	target, err := d.resolve(r.Path)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	if r.Body != nil {
		if payload, contentType, err = r.Body.encode(); err != nil {
			return nil, err
		}
	}

	cred, _, err := d.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	header := d.header(r, contentType)
	if cred != "" && header.Get("Authorization") == "" {
		header.Set("Authorization", bearer(cred))
	}

	client := d.client
	if r.OmitCookies {
		client = d.bare
	}
	log := d.log.With("method", r.Method, "url", redact.URL(target), "request_id", header.Get(RequestIDHeader))

	resp, err := d.send(ctx, client, log, r.Method, target, payload, header, 1)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || d.exempt(target) {
		return resp, nil
	}

	out := d.refresher.Refresh(ctx)
	if !out.OK {
		log.Info(ctx, "refresh failed, returning 401")
		return resp, nil
	}
	drain(resp)

	header.Set("Authorization", bearer(out.Credential))
	retry, err := d.send(ctx, client, log, r.Method, target, payload, header, 2)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized && d.purge {
		d.purgeCredential(ctx, log)
	}
	return retry, nil
}

func (d *Dispatcher) send(ctx context.Context, client *http.Client, log logging.Logger, method string, target *url.URL, payload []byte, header http.Header, attempt int) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = header.Clone()

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "attempt", attempt, "error", redact.Secrets(err.Error()))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, target.Path, err)
	}
	log.Debug(ctx, "request done",
		"attempt", attempt,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
		"headers", redact.Headers(req.Header),
	)
	return resp, nil
}

func (d *Dispatcher) header(r Request, contentType string) http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	switch {
	case isForm(r.Body):
		h.Set("Content-Type", contentType)
	case r.Body != nil && h.Get("Content-Type") == "":
		h.Set("Content-Type", jsonContentType)
	}
	if h.Get(RequestIDHeader) == "" {
		h.Set(RequestIDHeader, uuid.NewString())
	}
	return h
}

func (d *Dispatcher) resolve(path string) (*url.URL, error) {
	return ResolveURL(d.base, path)
}

// ResolveURL places path under base's path, so "/v1/me" against
// "http://h/api" is "http://h/api/v1/me" with or without the leading slash.
// The query of path is kept. An absolute URL in path is used as is.
func ResolveURL(base *url.URL, path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return base.ResolveReference(ref), nil
	}

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ref.Fragment
	return &u, nil
}

// exempt reports whether target lies under the auth prefix, measured from
// the base path.
func (d *Dispatcher) exempt(target *url.URL) bool {
	if target.Host != d.base.Host {
		return false
	}
	rel := target.Path
	if basePath := strings.TrimRight(d.base.Path, "/"); basePath != "" {
		if !strings.HasPrefix(rel, basePath+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, basePath)
	}
	return strings.HasPrefix(rel, d.authPrefix)
}

func (d *Dispatcher) purgeCredential(ctx context.Context, log logging.Logger) {
	c, ok := d.store.(credentials.Clearer)
	if !ok {
		return
	}
	if err := c.Clear(ctx); err != nil {
		log.Warn(ctx, "purge rejected credential", "error", err)
		return
	}
	log.Info(ctx, "refreshed credential rejected, store cleared")
}

func bearer(c credentials.Credential) string {
	return "Bearer " + string(c)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
