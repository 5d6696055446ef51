package capability

import (
	"slices"
	"sync"
)

// Sink is the host surface the controller publishes to. Implementations
// must be safe for concurrent use.
type Sink interface {
	// SetValue publishes a capability value.
	SetValue(key string, value any) error

	// Value returns the currently published value for a key.
	Value(key string) (any, bool)

	// Keys returns the currently registered capability keys.
	Keys() []string

	// AddKey registers a capability key with the host.
	AddKey(key string) error

	// RemoveKey unregisters a capability key from the host.
	RemoveKey(key string) error

	// Trigger fires a named flow trigger with the given tokens.
	Trigger(name string, tokens map[string]any) error

	// Notify sends a user-facing notification.
	Notify(message string) error

	// SetAvailable marks the device available.
	SetAvailable() error

	// SetUnavailable marks the device unavailable with a reason.
	SetUnavailable(reason string) error
}

// TriggerRecord is one fired flow trigger, kept by MemorySink for inspection.
type TriggerRecord struct {
	Name   string
	Tokens map[string]any
}

// MemorySink is an in-process Sink holding everything in memory. It backs
// the standalone daemon, where the published state is served over the
// local API, and doubles as the sink for tests.
type MemorySink struct {
	mu            sync.RWMutex
	values        map[string]any
	registered    map[string]bool
	triggers      []TriggerRecord
	notifications []string
	available     bool
	reason        string
}

// NewMemorySink creates an empty MemorySink with the given capability
// keys registered.
func NewMemorySink(keys ...string) *MemorySink {
	s := &MemorySink{
		values:     make(map[string]any),
		registered: make(map[string]bool),
		available:  true,
	}
	for _, key := range keys {
		s.registered[key] = true
	}
	return s
}

// SetValue publishes a capability value.
func (s *MemorySink) SetValue(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Value returns the currently published value for a key.
func (s *MemorySink) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the registered capability keys, sorted.
func (s *MemorySink) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.registered))
	for key := range s.registered {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// AddKey registers a capability key.
func (s *MemorySink) AddKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[key] = true
	return nil
}

// RemoveKey unregisters a capability key and drops its value.
func (s *MemorySink) RemoveKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registered, key)
	delete(s.values, key)
	return nil
}

// Trigger records a fired flow trigger.
func (s *MemorySink) Trigger(name string, tokens map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, TriggerRecord{Name: name, Tokens: tokens})
	return nil
}

// Notify records a user notification.
func (s *MemorySink) Notify(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, message)
	return nil
}

// SetAvailable marks the device available.
func (s *MemorySink) SetAvailable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = true
	s.reason = ""
	return nil
}

// SetUnavailable marks the device unavailable.
func (s *MemorySink) SetUnavailable(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = false
	s.reason = reason
	return nil
}

// Available returns the availability state and the unavailability reason.
func (s *MemorySink) Available() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available, s.reason
}

// Triggers returns a copy of the fired triggers.
func (s *MemorySink) Triggers() []TriggerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.triggers)
}

// Notifications returns a copy of the sent notifications.
func (s *MemorySink) Notifications() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

// Compile-time interface satisfaction check.
var _ Sink = (*MemorySink)(nil)
