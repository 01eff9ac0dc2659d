package elastic

import (
	"testing"
	"time"

	"github.com/kbukum/rawes/resilience"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{URL: "localhost", Path: "/base/v1/"}
	cfg.ApplyDefaults()

	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, defaultTimeout)
	}
	if cfg.Path != "base/v1" {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Retry != nil || cfg.CircuitBreaker != nil {
		t.Error("resilience must stay disabled by default")
	}

	cfg = Config{URL: "localhost", Timeout: time.Second}
	cfg.ApplyDefaults()
	if cfg.Timeout != time.Second {
		t.Errorf("Timeout overwritten: %v", cfg.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal", Config{URL: "localhost:9200"}, false},
		{"basic auth", Config{URL: "localhost", Username: "u", Password: "p"}, false},
		{"api key", Config{URL: "https://search", APIKey: "k"}, false},
		{"missing url", Config{}, true},
		{"bad url", Config{URL: "gopher://x"}, true},
		{"username without password", Config{URL: "localhost", Username: "u"}, true},
		{"api key with username", Config{URL: "localhost", Username: "u", Password: "p", APIKey: "k"}, true},
		{"negative timeout", Config{URL: "localhost", Timeout: -time.Second}, true},
		{"negative idle conns", Config{URL: "localhost", MaxIdleConns: -1}, true},
		{"cert without key", Config{URL: "localhost", TLS: &TLSConfig{CertFile: "c.pem"}}, true},
		{"bad retry", Config{URL: "localhost", Retry: &resilience.RetryConfig{MaxAttempts: -1}}, true},
		{"good retry", Config{URL: "localhost", Retry: &resilience.RetryConfig{MaxAttempts: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{URL: "ftp://localhost"}); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestNew_SelectsTransport(t *testing.T) {
	tests := []struct {
		url  string
		want TransportKind
	}{
		{"localhost:9200", TransportHTTP},
		{"localhost:9500", TransportThrift},
		{"thrift://localhost:9200", TransportThrift},
		{"https://localhost:9500", TransportHTTP},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c, err := New(Config{URL: tt.url})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := c.transport.Kind(); got != tt.want {
				t.Errorf("transport = %s, want %s", got, tt.want)
			}
			if c.Endpoint().Kind != tt.want {
				t.Errorf("endpoint kind = %s", c.Endpoint().Kind)
			}
		})
	}
}

func TestClient_URIPrefix(t *testing.T) {
	tests := []struct {
		url, path, req, want string
	}{
		{"localhost", "", "idx/_search", "/idx/_search"},
		{"localhost", "", "", "/"},
		{"localhost/es", "", "idx", "/es/idx"},
		{"localhost/es", "/v1/", "idx", "/es/v1/idx"},
		{"localhost", "v1", "/idx", "/v1//idx"},
	}
	for _, tt := range tests {
		t.Run(tt.url+"|"+tt.path+"|"+tt.req, func(t *testing.T) {
			c := newRecordingClient(t, Config{URL: tt.url, Path: tt.path}, &recordingTransport{})
			if got := c.uri(tt.req); got != tt.want {
				t.Errorf("uri(%q) = %q, want %q", tt.req, got, tt.want)
			}
		})
	}
}
