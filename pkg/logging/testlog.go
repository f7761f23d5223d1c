package logging

import (
	"bytes"
	"log/slog"
	"sync"
)

// TB is the part of testing.TB a test logger writes to.
type TB interface {
	Log(args ...any)
	Cleanup(func())
}

// ForTest returns a text logger that reports records at level and above
// through tb.Log, so they show up next to the failing test. Records
// emitted after the test has finished are dropped.
func ForTest(tb TB, level Level) *slog.Logger {
	w := &tbWriter{tb: tb}
	tb.Cleanup(w.close)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type tbWriter struct {
	mu     sync.Mutex
	tb     TB
	closed bool
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.tb.Log(string(bytes.TrimRight(p, "\n")))
	}
	return len(p), nil
}

func (w *tbWriter) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
