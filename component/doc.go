// Package component defines the lifecycle interfaces shared by the search
// client and the test services.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Start/Stop/Health)
//   - Describable: One-line summaries for status displays
//
// A Registry starts components in registration order and stops them in
// reverse.
package component
