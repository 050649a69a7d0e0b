package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// ConnectionOpened is a no-op.
func (n *NoopCollector) ConnectionOpened(service string) {}

// ConnectionClosed is a no-op.
func (n *NoopCollector) ConnectionClosed(service string) {}

// CommandProcessed is a no-op.
func (n *NoopCollector) CommandProcessed(service, command string) {}

// AuthAttempt is a no-op.
func (n *NoopCollector) AuthAttempt(success bool) {}

// MessageAccepted is a no-op.
func (n *NoopCollector) MessageAccepted(sizeBytes int64) {}

// MessageRetrieved is a no-op.
func (n *NoopCollector) MessageRetrieved(sizeBytes int64) {}

// MessageDeleted is a no-op.
func (n *NoopCollector) MessageDeleted() {}
