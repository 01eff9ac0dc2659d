package elastic

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/kbukum/rawes/component"
)

// Compile-time interface checks.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps a Client in the component lifecycle.
type Component struct {
	name   string
	config Config
	opts   []Option

	mu     sync.RWMutex
	client *Client
}

// NewComponent creates a component; the client is built on Start.
func NewComponent(name string, cfg Config, opts ...Option) *Component {
	if name == "" {
		name = "elastic"
	}
	return &Component{name: name, config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// Start creates the client.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop closes the client's connections.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close(ctx)
	c.client = nil
	return err
}

// Health sends GET / and reports the service reachable when it answers
// with a non-5xx status.
func (c *Component) Health(ctx context.Context) component.Health {
	client := c.Client()
	if client == nil {
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "not started"}
	}

	resp, err := client.Execute(ctx, Request{Method: http.MethodGet})
	switch {
	case err != nil && IsDecodeFailure(err):
		return component.Health{Name: c.name, Status: component.StatusDegraded, Message: err.Error()}
	case err != nil:
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: err.Error()}
	case resp.Status >= http.StatusInternalServerError:
		return component.Health{
			Name:    c.name,
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("service returned status %d", resp.Status),
		}
	}
	return component.Health{Name: c.name, Status: component.StatusHealthy}
}

// Describe returns a summary for startup displays.
func (c *Component) Describe() component.Description {
	ep, err := ParseEndpoint(c.config.URL)
	if err != nil {
		return component.Description{Name: "Search Client", Type: "search", Details: c.config.URL}
	}
	return component.Description{
		Name:    "Search Client",
		Type:    "search",
		Details: fmt.Sprintf("%s transport=%s", ep.String(), ep.Kind),
		Port:    ep.Port,
	}
}

// Client returns the running client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

