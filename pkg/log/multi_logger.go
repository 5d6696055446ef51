package log

// MultiLogger fans each event out to several loggers, typically the
// CBOR event file plus the console adapter.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines the given loggers into one. Nil entries are
// skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.sinks = append(m.sinks, l)
		}
	}
	return m
}

// Log forwards the event to every configured logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.sinks {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
