package testutil

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/rawes/component"
	"github.com/kbukum/rawes/logger"
	tu "github.com/kbukum/rawes/testutil"
	"github.com/kbukum/rawes/thriftclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Compile-time interface checks.
var (
	_ component.Component   = (*Service)(nil)
	_ component.Describable = (*Service)(nil)
	_ tu.TestComponent      = (*Service)(nil)
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for request lines.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.WithComponent("fake-search")
		}
	}
}

// WithFramedThrift serves the framed Thrift transport instead of the
// buffered one.
func WithFramedThrift() Option {
	return func(s *Service) {
		s.framed = true
	}
}

// WithTLS serves HTTPS with HTTP/2 enabled. Clients must skip
// certificate verification.
func WithTLS() Option {
	return func(s *Service) {
		s.tls = true
	}
}

// Service is an in-memory search service with HTTP and Thrift front ends.
type Service struct {
	name   string
	framed bool
	tls    bool
	log    *logger.Logger
	store  *store
	engine *gin.Engine

	mu         sync.RWMutex
	ts         *httptest.Server
	thrift     *thriftclient.Server
	thriftAddr string
	group      *errgroup.Group
}

// NewService creates a stopped service.
func NewService(opts ...Option) *Service {
	s := &Service{
		name:  "fake-search",
		log:   logger.Nop(),
		store: newStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.newEngine()
	return s
}

// Name returns the component name.
func (s *Service) Name() string { return s.name }

// Start listens on loopback ports for both front ends.
func (s *Service) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ts != nil {
		return nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("fake search: listen thrift: %w", err)
	}

	ts := httptest.NewUnstartedServer(s.engine)
	if s.tls {
		ts.EnableHTTP2 = true
		ts.StartTLS()
	} else {
		ts.Start()
	}

	srv := thriftclient.NewServer(s.executeThrift, thriftclient.ServerConfig{
		Framed: s.framed,
		Logger: s.log,
	})
	group := &errgroup.Group{}
	group.Go(func() error {
		return srv.Serve(ln)
	})

	s.ts = ts
	s.thrift = srv
	s.thriftAddr = ln.Addr().String()
	s.group = group

	s.log.Info("fake search service started", logger.Fields(
		"http", ts.URL,
		"thrift", s.thriftAddr,
	))
	return nil
}

// Stop closes both front ends and waits for the Thrift server to exit.
func (s *Service) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ts == nil {
		return nil
	}
	s.ts.Close()
	closeErr := s.thrift.Close()
	serveErr := s.group.Wait()

	s.ts = nil
	s.thrift = nil
	s.thriftAddr = ""
	s.group = nil

	if closeErr != nil {
		return closeErr
	}
	return serveErr
}

// Health reports healthy while started.
func (s *Service) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return component.Health{Name: s.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.name, Status: component.StatusHealthy}
}

// Describe returns a summary for startup displays.
func (s *Service) Describe() component.Description {
	return component.Description{
		Name:    "Fake Search Service",
		Type:    "search",
		Details: fmt.Sprintf("http=%s thrift=%s", s.HTTPURL(), s.ThriftURL()),
	}
}

// Reset drops all indices.
func (s *Service) Reset(_ context.Context) error {
	s.store.reset()
	return nil
}

// Snapshot captures all indices and documents.
func (s *Service) Snapshot(_ context.Context) (interface{}, error) {
	return s.store.snapshot(), nil
}

// Restore returns to a state captured by Snapshot.
func (s *Service) Restore(_ context.Context, snapshot interface{}) error {
	snap, ok := snapshot.(*storeSnapshot)
	if !ok {
		return fmt.Errorf("fake search: invalid snapshot type %T", snapshot)
	}
	s.store.restore(snap)
	return nil
}

// HTTPURL returns the HTTP base URL, or "" when stopped.
func (s *Service) HTTPURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// ThriftURL returns the Thrift URL (thrift://host:port), or "" when stopped.
func (s *Service) ThriftURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.thriftAddr == "" {
		return ""
	}
	return "thrift://" + s.thriftAddr
}

// Handler returns the HTTP handler, for use without starting listeners.
func (s *Service) Handler() http.Handler {
	return s.engine
}

// executeThrift answers Rest.execute by replaying the call through the
// HTTP router, so both front ends share one routing table.
func (s *Service) executeThrift(ctx context.Context, req *thriftclient.RestRequest) *thriftclient.RestResponse {
	target := &url.URL{Path: req.URI}
	if len(req.Parameters) > 0 {
		q := url.Values{}
		for k, v := range req.Parameters {
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method.String(), "/", bytes.NewReader(req.Body))
	if err != nil {
		return &thriftclient.RestResponse{
			Status: http.StatusBadRequest,
			Body:   []byte(fmt.Sprintf(`{"error":%q,"status":400}`, err.Error())),
		}
	}
	httpReq.URL = target
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httpReq)

	resp := &thriftclient.RestResponse{
		Status: int32(rec.Code),
		Body:   rec.Body.Bytes(),
	}
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		resp.Headers = map[string]string{"Content-Type": ct}
	}
	return resp
}
