package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed component such as a search
// client or an in-process test service.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information for status displays.
type Description struct {
	// Name is the human-readable display name (e.g., "Search Client").
	// If empty, the component's Name() is used.
	Name string `json:"name"`
	// Type categorizes the component, e.g. "search".
	Type string `json:"type"`
	// Details is a human-readable one-liner.
	// Example: "http://localhost:9200 transport=http"
	Details string `json:"details"`
	// Port is the primary port, 0 if not applicable.
	Port int `json:"port,omitempty"`
}

// Describable is optionally implemented by Components to describe
// themselves in Registry.Describe.
type Describable interface {
	Describe() Description
}
