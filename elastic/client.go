package elastic

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/rawes/codec"
	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/observability"
	"github.com/kbukum/rawes/value"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client and its transport.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithComponent("elastic")
		}
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTransport replaces the transport selected from the URL.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// Client sends requests to one service endpoint. It is safe for
// concurrent use and holds no per-call state.
type Client struct {
	config    Config
	endpoint  Endpoint
	prefix    string
	transport Transport
	log       *logger.Logger
	metrics   *observability.ClientMetrics
}

// New creates a client for cfg.URL. No connection is made until the
// first call.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ep, err := ParseEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		endpoint: ep,
		prefix:   joinPrefix(ep.Path, cfg.Path),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := newTransport(ep, cfg, c.log)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	return c, nil
}

// Get sends GET to path.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (value.Value, error) {
	return c.call(ctx, http.MethodGet, path, opts)
}

// Put sends PUT to path.
func (c *Client) Put(ctx context.Context, path string, opts ...RequestOption) (value.Value, error) {
	return c.call(ctx, http.MethodPut, path, opts)
}

// Post sends POST to path.
func (c *Client) Post(ctx context.Context, path string, opts ...RequestOption) (value.Value, error) {
	return c.call(ctx, http.MethodPost, path, opts)
}

// Delete sends DELETE to path.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (value.Value, error) {
	return c.call(ctx, http.MethodDelete, path, opts)
}

// Head sends HEAD to path. The service replies without a body, so the
// value is null; use Execute to read the status.
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (value.Value, error) {
	return c.call(ctx, http.MethodHead, path, opts)
}

func (c *Client) call(ctx context.Context, method, path string, opts []RequestOption) (value.Value, error) {
	req := Request{Method: method, Path: path}
	for _, opt := range opts {
		opt(&req)
	}
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return value.Value{}, err
	}
	return resp.Body, nil
}

// Execute sends req and decodes the reply. The body and params are
// encoded before any network I/O.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if !validMethod(method) {
		return nil, errors.InvalidInput("method", "unsupported method "+req.Method)
	}

	body, contentType, err := codec.EncodeBody(req.Body, req.Encoder)
	if err != nil {
		return nil, err
	}
	params, err := encodeParams(req.Params)
	if err != nil {
		return nil, err
	}

	treq := &TransportRequest{
		Method:      method,
		URI:         c.uri(req.Path),
		Params:      params,
		Body:        body,
		ContentType: contentType,
	}

	kind := c.transport.Kind().String()
	ctx, call := observability.StartCall(ctx, c.metrics, kind, method, treq.URI)
	start := time.Now()

	tresp, err := c.transport.Execute(ctx, treq)
	if err != nil {
		call.End(ctx, 0, errorCode(err), err)
		c.log.Warn("request failed", logger.Fields(
			logger.FieldTransport, kind,
			logger.FieldMethod, method,
			logger.FieldPath, treq.URI,
			logger.FieldError, err.Error(),
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
		return nil, err
	}

	decoded, err := value.Decode(tresp.Body)
	if err != nil {
		appErr, _ := errors.AsAppError(err)
		if appErr != nil {
			appErr.WithDetail("status", tresp.Status)
		}
		call.End(ctx, tresp.Status, errorCode(err), err)
		return nil, err
	}
	call.End(ctx, tresp.Status, "", nil)

	c.log.Debug("request completed", logger.Fields(
		logger.FieldTransport, kind,
		logger.FieldMethod, method,
		logger.FieldPath, treq.URI,
		logger.FieldStatus, tresp.Status,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return &Response{Status: tresp.Status, Body: decoded}, nil
}

// Endpoint returns the parsed service endpoint.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Close releases pooled connections.
func (c *Client) Close(ctx context.Context) error {
	return c.transport.Close(ctx)
}

// uri joins the base prefix and path. The path is used as given so empty
// segments survive.
func (c *Client) uri(path string) string {
	if c.prefix == "" {
		return "/" + path
	}
	return "/" + c.prefix + "/" + path
}

func joinPrefix(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodHead:
		return true
	}
	return false
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
