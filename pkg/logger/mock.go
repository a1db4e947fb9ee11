package logger

import (
	"fmt"
	"strings"
	"sync"
)

// MockLogger records log entries for assertions in tests.
type MockLogger struct {
	store *entryStore
	attrs []any
}

// LogMessage is a single recorded entry.
type LogMessage struct {
	Level string
	Msg   string
	Args  []any
}

// Value returns the value logged under key, if present.
func (m LogMessage) Value(key string) (any, bool) {
	for i := 0; i+1 < len(m.Args); i += 2 {
		if k, ok := m.Args[i].(string); ok && k == key {
			return m.Args[i+1], true
		}
	}
	return nil, false
}

type entryStore struct {
	mu      sync.Mutex
	entries []LogMessage
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &entryStore{}}
}

func (m *MockLogger) record(level, msg string, args []any) {
	merged := make([]any, 0, len(m.attrs)+len(args))
	merged = append(merged, m.attrs...)
	merged = append(merged, args...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.entries = append(m.store.entries, LogMessage{Level: level, Msg: msg, Args: merged})
}

// Debug records a debug entry.
func (m *MockLogger) Debug(msg string, args ...any) { m.record("DEBUG", msg, args) }

// Info records an info entry.
func (m *MockLogger) Info(msg string, args ...any) { m.record("INFO", msg, args) }

// Warn records a warning entry.
func (m *MockLogger) Warn(msg string, args ...any) { m.record("WARN", msg, args) }

// Error records an error entry.
func (m *MockLogger) Error(msg string, args ...any) { m.record("ERROR", msg, args) }

// With returns a logger sharing the same entries with extra attributes.
func (m *MockLogger) With(args ...any) Logger {
	attrs := make([]any, 0, len(m.attrs)+len(args))
	attrs = append(attrs, m.attrs...)
	attrs = append(attrs, args...)
	return &MockLogger{store: m.store, attrs: attrs}
}

// WithGroup returns a logger tagged with the group name.
func (m *MockLogger) WithGroup(name string) Logger {
	return m.With("group", name)
}

// Messages returns a copy of all recorded entries.
func (m *MockLogger) Messages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := make([]LogMessage, len(m.store.entries))
	copy(out, m.store.entries)
	return out
}

// HasMessage reports whether an entry with exactly this level and message exists.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, e := range m.Messages() {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

// HasMessageContaining reports whether an entry at level contains substring.
func (m *MockLogger) HasMessageContaining(level, substring string) bool {
	for _, e := range m.Messages() {
		if e.Level == level && strings.Contains(e.Msg, substring) {
			return true
		}
	}
	return false
}

// Find returns the first entry with the given message.
func (m *MockLogger) Find(msg string) (LogMessage, bool) {
	for _, e := range m.Messages() {
		if e.Msg == msg {
			return e, true
		}
	}
	return LogMessage{}, false
}

// Clear drops all recorded entries.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.entries = nil
}

// String renders every entry, one per line.
func (m *MockLogger) String() string {
	var b strings.Builder
	for _, e := range m.Messages() {
		fmt.Fprintf(&b, "[%s] %s %v\n", e.Level, e.Msg, e.Args)
	}
	return b.String()
}
