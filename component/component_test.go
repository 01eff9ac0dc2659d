package component

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	c := &mockComponent{name: "search", health: Health{Name: "search", Status: StatusHealthy}}

	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	c := &mockComponent{name: "search"}
	r.Register(c)

	err := r.Register(&mockComponent{name: "search"})
	if err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	c := &mockComponent{name: "search"}
	r.Register(c)

	got := r.Get("search")
	if got == nil {
		t.Fatal("expected to get registered component")
	}
	if got.Name() != "search" {
		t.Errorf("expected 'search', got %q", got.Name())
	}
}

func TestGetNotFound(t *testing.T) {
	r := NewRegistry()
	got := r.Get("missing")
	if got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestStartAll(t *testing.T) {
	r := NewRegistry()
	order := []string{}

	r.Register(&mockComponent{
		name: "search", startOrder: &order,
		health: Health{Name: "search", Status: StatusHealthy},
	})
	r.Register(&mockComponent{
		name: "tracing", startOrder: &order,
		health: Health{Name: "tracing", Status: StatusHealthy},
	})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}

	if len(order) != 2 {
		t.Fatalf("expected 2 starts, got %d", len(order))
	}
	if order[0] != "search" || order[1] != "tracing" {
		t.Errorf("expected start order [search, tracing], got %v", order)
	}
}

func TestStartAllError(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{name: "search", startErr: fmt.Errorf("connection refused")})

	err := r.StartAll(context.Background())
	if err == nil {
		t.Error("expected error from StartAll")
	}
}

func TestStopAllReverseOrder(t *testing.T) {
	r := NewRegistry()
	order := []string{}

	r.Register(&mockComponent{name: "search", stopOrder: &order, health: Health{Name: "search", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "tracing", stopOrder: &order, health: Health{Name: "tracing", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "metrics", stopOrder: &order, health: Health{Name: "metrics", Status: StatusHealthy}})

	r.StartAll(context.Background())
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if len(order) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(order))
	}
	if order[0] != "metrics" || order[1] != "tracing" || order[2] != "search" {
		t.Errorf("expected reverse stop order [metrics, tracing, search], got %v", order)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry()
	order := []string{}
	r.Register(&mockComponent{name: "search", stopOrder: &order})

	// Don't start, then stop
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected 0 stops for unstarted components, got %d", len(order))
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{
		name: "search", stopErr: fmt.Errorf("stop failed"),
		health: Health{Name: "search", Status: StatusHealthy},
	})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{
		name:   "search",
		health: Health{Name: "search", Status: StatusHealthy, Message: "connected"},
	})
	r.Register(&mockComponent{
		name:   "tracing",
		health: Health{Name: "tracing", Status: StatusUnhealthy, Message: "timeout"},
	})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy {
		t.Errorf("expected search healthy, got %s", results[0].Status)
	}
	if results[1].Status != StatusUnhealthy {
		t.Errorf("expected tracing unhealthy, got %s", results[1].Status)
	}
}

func TestHealthStatusConstants(t *testing.T) {
	if StatusHealthy != "healthy" {
		t.Errorf("expected 'healthy', got %q", StatusHealthy)
	}
	if StatusUnhealthy != "unhealthy" {
		t.Errorf("expected 'unhealthy', got %q", StatusUnhealthy)
	}
	if StatusDegraded != "degraded" {
		t.Errorf("expected 'degraded', got %q", StatusDegraded)
	}
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func TestDescribe(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{name: "plain"})
	r.Register(&describedComponent{
		mockComponent: mockComponent{name: "search"},
		desc:          Description{Type: "elastic", Details: "http://localhost:9200"},
	})

	got := r.Describe()
	if len(got) != 2 {
		t.Fatalf("expected 2 descriptions, got %d", len(got))
	}
	if got[0].Name != "plain" || got[0].Type != "" {
		t.Errorf("unexpected plain description: %+v", got[0])
	}
	if got[1].Name != "search" || got[1].Type != "elastic" {
		t.Errorf("unexpected search description: %+v", got[1])
	}
}

func TestStartAllIsIdempotent(t *testing.T) {
	r := NewRegistry(WithStopTimeout(time.Second))
	order := []string{}
	r.Register(&mockComponent{name: "search", startOrder: &order})

	_ = r.StartAll(context.Background())
	_ = r.StartAll(context.Background())
	if len(order) != 1 {
		t.Errorf("expected a single start, got %v", order)
	}
}
