// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// TestLogger captures logrus output and entries for assertions
type TestLogger struct {
	logger *logrus.Logger
	hook   *entryHook
	buffer *bytes.Buffer
}

// NewTestLogger creates a logger that records everything at debug level
func NewTestLogger(t *testing.T) *TestLogger {
	buffer := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buffer)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})

	hook := &entryHook{}
	logger.AddHook(hook)

	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("captured logs:\n%s", buffer.String())
		}
	})

	return &TestLogger{
		logger: logger,
		hook:   hook,
		buffer: buffer,
	}
}

// Logger returns the underlying logger
func (l *TestLogger) Logger() *logrus.Logger {
	return l.logger
}

// String returns the formatted log output
func (l *TestLogger) String() string {
	return l.buffer.String()
}

// Entries returns a copy of the captured entries
func (l *TestLogger) Entries() []logrus.Entry {
	return l.hook.all()
}

// RequireEntry asserts that an entry with level and message was logged and
// carries the given fields.
func (l *TestLogger) RequireEntry(t *testing.T, level logrus.Level, message string, fields logrus.Fields) {
	t.Helper()
	for _, entry := range l.Entries() {
		if entry.Level != level || entry.Message != message {
			continue
		}
		for k, v := range fields {
			require.Equal(t, v, entry.Data[k], "field %s of %q", k, message)
		}
		return
	}
	t.Fatalf("log entry not found: [%s] %s\n%s", level, message, l.String())
}

// RequireNotContains asserts that text never appears in the output
func (l *TestLogger) RequireNotContains(t *testing.T, text string) {
	t.Helper()
	require.False(t, strings.Contains(l.String(), text), "log output contains %q", text)
}

type entryHook struct {
	mu      sync.Mutex
	entries []logrus.Entry
}

func (h *entryHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *entryHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *entryHook) all() []logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]logrus.Entry(nil), h.entries...)
}
