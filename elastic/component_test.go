package elastic_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/rawes/component"
	"github.com/kbukum/rawes/elastic"
)

func TestComponent_Lifecycle(t *testing.T) {
	svc := startService(t)
	ctx := context.Background()

	c := elastic.NewComponent("", elastic.Config{URL: svc.HTTPURL()})
	if c.Name() != "elastic" {
		t.Errorf("Name() = %q", c.Name())
	}
	if c.Client() != nil {
		t.Fatal("client exists before Start")
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := c.Client()
	if err := c.Start(ctx); err != nil || c.Client() != first {
		t.Error("second Start replaced the client")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health = %s (%s)", h.Status, h.Message)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Client() != nil {
		t.Error("client kept after Stop")
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestComponent_StartInvalidConfig(t *testing.T) {
	c := elastic.NewComponent("search", elastic.Config{URL: "ftp://nowhere"})
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail")
	}
}

func TestComponent_Health(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    component.HealthStatus
		message string
	}{
		{"ok", http.StatusOK, `{"ok":true}`, component.StatusHealthy, ""},
		{"not found is reachable", http.StatusNotFound, `{}`, component.StatusHealthy, ""},
		{"server error", http.StatusServiceUnavailable, `{"error":"x"}`, component.StatusDegraded, "503"},
		{"not json", http.StatusOK, `<html>`, component.StatusDegraded, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := elastic.NewComponent("search", elastic.Config{URL: srv.URL})
			if err := c.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			defer func() { _ = c.Stop(context.Background()) }()

			h := c.Health(context.Background())
			if h.Status != tt.want {
				t.Errorf("status = %s, want %s (%s)", h.Status, tt.want, h.Message)
			}
			if tt.message != "" && !strings.Contains(strings.ToLower(h.Message), tt.message) {
				t.Errorf("message = %q, want it to mention %q", h.Message, tt.message)
			}
		})
	}
}

func TestComponent_HealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := elastic.NewComponent("search", elastic.Config{URL: url})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("status = %s", h.Status)
	}
}

func TestComponent_Describe(t *testing.T) {
	d := elastic.NewComponent("search", elastic.Config{URL: "localhost:9500/es"}).Describe()
	if d.Type != "search" || d.Port != 9500 {
		t.Errorf("description = %+v", d)
	}
	if d.Details != "thrift://localhost:9500/es transport=thrift" {
		t.Errorf("details = %q", d.Details)
	}
}
