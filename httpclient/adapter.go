package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/resilience"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.WithComponent("httpclient")
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client. TLS, HTTP/2 and
// timeout settings from Config are not applied to it.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// Adapter is a configurable HTTP adapter with built-in auth, TLS, and resilience.
type Adapter struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	log        *logger.Logger
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	transport.IdleConnTimeout = defaultIdleConnTimeout

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("httpclient: configure http2: %w", err)
		}
	}

	c := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.IsFailure == nil {
			cbCfg.IsFailure = isBackendFailure
		}
		if cbCfg.OnStateChange == nil {
			cbCfg.OnStateChange = resilience.LogStateChange(c.log)
		}
		c.cb = resilience.NewCircuitBreaker(cbCfg)
	}

	return c, nil
}

// Do executes an HTTP request and returns the complete response.
//
// A non-2xx status returns both the Response and a classified *Error.
func (c *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry == nil {
		return c.doOnce(ctx, req)
	}

	// Retry drops the value on failure; keep the last response so a
	// non-retryable status still reaches the caller.
	var last *Response
	resp, err := resilience.Retry(ctx, *c.config.Retry, func() (*Response, error) {
		r, err := c.doOnce(ctx, req)
		last = r
		return r, err
	})
	if err != nil && last != nil {
		return last, err
	}
	return resp, err
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Adapter) Unwrap() *http.Client {
	return c.httpClient
}

// doOnce executes a single HTTP request through the circuit breaker.
func (c *Adapter) doOnce(ctx context.Context, req Request) (*Response, error) {
	if c.cb == nil {
		return c.executeRequest(ctx, req)
	}

	var resp *Response
	err := c.cb.Execute(func() error {
		var execErr error
		resp, execErr = c.executeRequest(ctx, req)
		return execErr
	})
	if err == resilience.ErrCircuitOpen {
		return nil, NewConnectionError(err)
	}
	return resp, err
}

// executeRequest builds and sends the HTTP request.
func (c *Adapter) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	c.log.Debug("http round trip", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, httpReq.URL.Path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	if classErr := StatusError(resp.StatusCode); classErr != nil {
		return result, classErr
	}

	return result, nil
}

// requestURL joins path onto BaseURL. path is taken literally, so '?', '#'
// and '%' inside it are escaped rather than read as URL syntax. Full URLs
// are parsed as given.
func (c *Adapter) requestURL(path string) (*url.URL, error) {
	if c.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return url.Parse(path)
	}
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	return u, nil
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (c *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.requestURL(req.Path)
	if err != nil {
		return nil, newRequestError(err)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, newRequestError(err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}

	// Request-specific headers override defaults.
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}

// Name returns the adapter name.
func (c *Adapter) Name() string {
	return c.config.Name
}

// IsAvailable reports false while the circuit breaker is open.
func (c *Adapter) IsAvailable(_ context.Context) bool {
	if c.cb != nil {
		return c.cb.State() != resilience.StateOpen
	}
	return true
}

// Close releases idle connections held by the adapter.
func (c *Adapter) Close(_ context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetConfig returns the adapter's configuration.
func (c *Adapter) GetConfig() Config {
	return c.config
}
