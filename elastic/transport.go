package elastic

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/httpclient"
	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/security"
	"github.com/kbukum/rawes/thriftclient"
	"github.com/kbukum/rawes/version"
)

// TransportRequest is one encoded call handed to a Transport.
type TransportRequest struct {
	// Method is GET, PUT, POST, DELETE or HEAD.
	Method string
	// URI is the absolute request path, starting with "/".
	URI string
	// Params are sent as the query string or the Thrift parameters map.
	Params map[string]string
	// Body is the encoded payload. Nil sends none.
	Body []byte
	// ContentType describes Body when it is JSON.
	ContentType string
}

// TransportResponse is the raw service reply.
type TransportResponse struct {
	Status int
	Body   []byte
}

// Transport executes requests against the service. Any status the
// service returns is a response, not an error; errors mean the round trip
// did not complete.
type Transport interface {
	Execute(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
	Kind() TransportKind
	Close(ctx context.Context) error
}

// Compile-time interface checks.
var (
	_ Transport = (*httpTransport)(nil)
	_ Transport = (*thriftTransport)(nil)
)

// newTransport builds the transport for ep from cfg.
func newTransport(ep Endpoint, cfg Config, log *logger.Logger) (Transport, error) {
	switch ep.Kind {
	case TransportThrift:
		return newThriftTransport(ep, cfg, log)
	default:
		return newHTTPTransport(ep, cfg, log)
	}
}

type httpTransport struct {
	adapter  *httpclient.Adapter
	endpoint string
}

func newHTTPTransport(ep Endpoint, cfg Config, log *logger.Logger) (*httpTransport, error) {
	tlsCfg := cfg.TLS
	if ep.Scheme == "https" && !tlsCfg.IsEnabled() {
		tlsCfg = withTLSEnabled(tlsCfg)
	}

	hc := httpclient.Config{
		Name:                "rawes-http",
		BaseURL:             ep.BaseURL(),
		Timeout:             cfg.Timeout,
		UserAgent:           version.UserAgent(),
		EnableHTTP2:         cfg.EnableHTTP2,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		TLS:                 tlsCfg,
		Headers:             cfg.Headers,
		Retry:               cfg.Retry,
		CircuitBreaker:      cfg.CircuitBreaker,
	}
	switch {
	case cfg.Username != "":
		hc.Auth = httpclient.BasicAuth(cfg.Username, cfg.Password)
	case cfg.APIKey != "":
		hc.Auth = httpclient.APIKeyAuth(cfg.APIKey)
	}
	if hc.Retry != nil && hc.Retry.RetryIf == nil {
		retry := *hc.Retry
		retry.RetryIf = httpclient.IsRetryable
		hc.Retry = &retry
	}

	adapter, err := httpclient.New(hc, httpclient.WithLogger(log))
	if err != nil {
		return nil, errors.InvalidInput("config", err.Error()).WithCause(err)
	}
	return &httpTransport{adapter: adapter, endpoint: ep.BaseURL()}, nil
}

func (t *httpTransport) Execute(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	resp, err := t.adapter.Do(ctx, httpclient.Request{
		Method:      req.Method,
		Path:        req.URI,
		Query:       req.Params,
		Body:        req.Body,
		ContentType: req.ContentType,
	})
	if err != nil && !(resp != nil && httpclient.IsStatus(err)) {
		return nil, wrapTransportError(t.endpoint, err, httpclient.IsTimeout(err))
	}
	return &TransportResponse{Status: resp.StatusCode, Body: resp.Body}, nil
}

func (t *httpTransport) Kind() TransportKind { return TransportHTTP }

func (t *httpTransport) Close(ctx context.Context) error {
	return t.adapter.Close(ctx)
}

type thriftTransport struct {
	adapter  *thriftclient.Adapter
	endpoint string
}

func newThriftTransport(ep Endpoint, cfg Config, log *logger.Logger) (*thriftTransport, error) {
	tc := thriftclient.Config{
		Name:           "rawes-thrift",
		Address:        ep.Address(),
		Timeout:        cfg.Timeout,
		Framed:         cfg.Framed,
		MaxIdleConns:   cfg.MaxIdleConns,
		TLS:            cfg.TLS,
		Retry:          cfg.Retry,
		CircuitBreaker: cfg.CircuitBreaker,
	}
	if tc.Retry != nil && tc.Retry.RetryIf == nil {
		retry := *tc.Retry
		retry.RetryIf = thriftclient.IsRetryable
		tc.Retry = &retry
	}

	adapter, err := thriftclient.New(tc, thriftclient.WithLogger(log))
	if err != nil {
		return nil, errors.InvalidInput("config", err.Error()).WithCause(err)
	}
	return &thriftTransport{adapter: adapter, endpoint: ep.BaseURL()}, nil
}

func (t *thriftTransport) Execute(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	method, err := thriftclient.ParseMethod(req.Method)
	if err != nil {
		return nil, errors.InvalidInput("method", err.Error())
	}

	var headers map[string]string
	if req.ContentType != "" {
		headers = map[string]string{"Content-Type": req.ContentType}
	}

	resp, err := t.adapter.Do(ctx, &thriftclient.RestRequest{
		Method:     method,
		URI:        req.URI,
		Parameters: req.Params,
		Headers:    headers,
		Body:       req.Body,
	})
	if err != nil {
		return nil, wrapTransportError(t.endpoint, err, thriftclient.IsTimeout(err))
	}
	return &TransportResponse{Status: int(resp.Status), Body: resp.Body}, nil
}

func (t *thriftTransport) Kind() TransportKind { return TransportThrift }

func (t *thriftTransport) Close(ctx context.Context) error {
	return t.adapter.Close(ctx)
}

// wrapTransportError maps an adapter failure onto the client taxonomy.
func wrapTransportError(endpoint string, err error, timeout bool) error {
	if timeout || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout("Request to "+endpoint, err)
	}
	return errors.TransportFailure(endpoint, err)
}

func withTLSEnabled(cfg *security.TLSConfig) *security.TLSConfig {
	out := security.TLSConfig{}
	if cfg != nil {
		out = *cfg
	}
	out.Enabled = true
	return &out
}
