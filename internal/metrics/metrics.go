// Package metrics provides interfaces and implementations for collecting
// mail spool daemon metrics. This package defines the Collector interface
// for recording metrics and the Server interface for exposing them.
package metrics

import "context"

// Service label values for collector methods shared by both daemons.
const (
	ServiceSMTP = "smtp"
	ServicePOP3 = "pop3"
)

// Collector defines the interface for recording daemon metrics.
type Collector interface {
	// Connection metrics
	ConnectionOpened(service string)
	ConnectionClosed(service string)

	// Command metrics
	CommandProcessed(service, command string)

	// Authentication metrics (POP3)
	AuthAttempt(success bool)

	// Message metrics
	MessageAccepted(sizeBytes int64)
	MessageRetrieved(sizeBytes int64)
	MessageDeleted()
}

// Server defines the interface for a metrics HTTP server.
type Server interface {
	// Start begins serving metrics. It blocks until the context is canceled
	// or an error occurs.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the metrics server.
	Shutdown(ctx context.Context) error
}
