package log

// Logger receives the controller's structured events: polls, commands,
// state changes, firmware findings and errors.
type Logger interface {
	// Log records one event. Called from the poll loop and from command
	// handlers, so implementations must be safe for concurrent use and
	// must not block.
	Log(event Event)
}

// NoopLogger drops every event. It stands in wherever no logger was
// configured.
type NoopLogger struct{}

// Log drops the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
