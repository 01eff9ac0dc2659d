package thriftclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
)

func echoHandler(_ context.Context, req *RestRequest) *RestResponse {
	status := int32(200)
	if req.URI == "/missing" {
		status = 404
	}
	body := fmt.Sprintf(`{"method":%q,"uri":%q,"refresh":%q,"body":%q}`,
		req.Method.String(), req.URI, req.Parameters["refresh"], string(req.Body))
	return &RestResponse{Status: status, Body: []byte(body)}
}

func startServer(t *testing.T, handler HandlerFunc, framed bool) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(handler, ServerConfig{Framed: framed})
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })
	return ln.Addr().String()
}

func newAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestAdapter_Do(t *testing.T) {
	for _, framed := range []bool{false, true} {
		t.Run(fmt.Sprintf("framed=%v", framed), func(t *testing.T) {
			addr := startServer(t, echoHandler, framed)
			a := newAdapter(t, Config{Address: addr, Framed: framed})

			resp, err := a.Do(context.Background(), &RestRequest{
				Method:     MethodPut,
				URI:        "/tweets/post/2",
				Parameters: map[string]string{"refresh": "true"},
				Body:       []byte(`{"user":"dan"}`),
			})
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if resp.Status != 200 {
				t.Errorf("status = %d", resp.Status)
			}
			want := `{"method":"PUT","uri":"/tweets/post/2","refresh":"true","body":"{\"user\":\"dan\"}"}`
			if string(resp.Body) != want {
				t.Errorf("body = %s\nwant  %s", resp.Body, want)
			}
		})
	}
}

func TestAdapter_Do_StatusIsData(t *testing.T) {
	addr := startServer(t, echoHandler, false)
	a := newAdapter(t, Config{Address: addr})

	resp, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/missing"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != 404 {
		t.Errorf("status = %d", resp.Status)
	}
}

func TestAdapter_Do_ReusesConnection(t *testing.T) {
	addr := startServer(t, echoHandler, false)
	a := newAdapter(t, Config{Address: addr})

	for i := 0; i < 3; i++ {
		if _, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/"}); err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
	}
	if n := a.pool.idleCount(); n != 1 {
		t.Errorf("idle connections = %d, want 1", n)
	}
}

func TestAdapter_Do_Concurrent(t *testing.T) {
	addr := startServer(t, echoHandler, false)
	a := newAdapter(t, Config{Address: addr, MaxIdleConns: 2})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uri := fmt.Sprintf("/idx/doc/%d", i)
			resp, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: uri})
			if err != nil {
				errs <- err
				return
			}
			want := fmt.Sprintf(`"uri":%q`, uri)
			if !strings.Contains(string(resp.Body), want) {
				errs <- fmt.Errorf("response for %s carried %s", uri, resp.Body)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := a.pool.idleCount(); n > 2 {
		t.Errorf("idle connections = %d, want <= 2", n)
	}
}

func TestAdapter_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	slow := func(ctx context.Context, req *RestRequest) *RestResponse {
		<-release
		return &RestResponse{Status: 200}
	}
	addr := startServer(t, slow, false)
	defer close(release)

	a := newAdapter(t, Config{Address: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.Do(ctx, &RestRequest{Method: MethodGet, URI: "/"})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if n := a.pool.idleCount(); n != 0 {
		t.Errorf("timed-out connection returned to pool")
	}
}

func TestAdapter_Do_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	a := newAdapter(t, Config{Address: addr})
	_, err = a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/"})
	if !IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("connection errors should be retryable")
	}
}

func TestAdapter_Do_RetryRecoversAfterDrop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// First connection is dropped without a reply, the second is served.
	srv := NewServer(echoHandler, ServerConfig{})
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		_ = c.Close()
		_ = srv.Serve(ln)
	}()
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	a := newAdapter(t, Config{Address: ln.Addr().String(), Retry: retry})

	resp, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != 200 {
		t.Errorf("status = %d", resp.Status)
	}
}

// trackingListener records accepted connections so a test can drop them
// from the server side.
type trackingListener struct {
	net.Listener
	mu    sync.Mutex
	conns []net.Conn
}

func (l *trackingListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err == nil {
		l.mu.Lock()
		l.conns = append(l.conns, c)
		l.mu.Unlock()
	}
	return c, err
}

func (l *trackingListener) dropAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.conns {
		_ = c.Close()
	}
	l.conns = nil
}

func TestAdapter_Do_RedialsIdleConnectionClosedByServer(t *testing.T) {
	for _, framed := range []bool{false, true} {
		t.Run(fmt.Sprintf("framed=%v", framed), func(t *testing.T) {
			inner, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("listen: %v", err)
			}
			ln := &trackingListener{Listener: inner}
			srv := NewServer(echoHandler, ServerConfig{Framed: framed})
			go func() { _ = srv.Serve(ln) }()
			t.Cleanup(func() { _ = srv.Close() })

			// No retry policy: the redial alone must cover the stale connection.
			a := newAdapter(t, Config{Address: inner.Addr().String(), Framed: framed})
			if _, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/first"}); err != nil {
				t.Fatalf("first Do: %v", err)
			}
			if n := a.pool.idleCount(); n != 1 {
				t.Fatalf("idle connections = %d, want 1", n)
			}

			ln.dropAll()

			resp, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/second"})
			if err != nil {
				t.Fatalf("second Do: %v", err)
			}
			if !strings.Contains(string(resp.Body), `"uri":"/second"`) {
				t.Errorf("body = %s", resp.Body)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"eof", io.EOF, ErrCodeConnection, true},
		{"eof in protocol exception", thrift.NewTProtocolException(io.EOF), ErrCodeConnection, true},
		{"unexpected eof", thrift.NewTProtocolException(io.ErrUnexpectedEOF), ErrCodeConnection, true},
		{"transport eof", thrift.NewTTransportException(thrift.END_OF_FILE, "closed"), ErrCodeConnection, true},
		{"transport not open", thrift.NewTTransportException(thrift.NOT_OPEN, "not open"), ErrCodeConnection, true},
		{"transport timeout", thrift.NewTTransportException(thrift.TIMED_OUT, "slow"), ErrCodeTimeout, true},
		{"reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, ErrCodeConnection, true},
		{"bad data", thrift.NewTProtocolExceptionWithType(thrift.INVALID_DATA, errors.New("junk")), ErrCodeProtocol, false},
		{"application", thrift.NewTApplicationException(thrift.UNKNOWN_METHOD, "nope"), ErrCodeApplication, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(ctx, tt.err)
			if got.Code != tt.code || got.Retryable != tt.retryable {
				t.Errorf("classify(%v) = %s retryable=%v, want %s retryable=%v", tt.err, got.Code, got.Retryable, tt.code, tt.retryable)
			}
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	addr := startServer(t, echoHandler, false)
	a, err := New(Config{Address: addr})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := a.Do(context.Background(), &RestRequest{Method: MethodGet, URI: "/"}); err == nil {
		t.Error("expected error after Close")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Address: "localhost:9500"}, false},
		{"missing address", Config{}, true},
		{"no port", Config{Address: "localhost"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
