package easel

import (
	"log/slog"
	"sync/atomic"
)

// silent is the logger in effect until SetLogger installs one.
var silent = slog.New(slog.DiscardHandler)

// current holds the installed logger; nil means silent. It is the core's
// only package-level state.
var current atomic.Pointer[slog.Logger]

// SetLogger routes the diagnostics of easel, stage and memstore to l.
// A nil l silences them again, which is also the initial state.
//
// Debug records cover lifecycle and sync results. Warn records report
// failures the core contained: a node that would not destroy, a layer that
// failed to paint, a rejected store call, a handler that panicked.
func SetLogger(l *slog.Logger) {
	current.Store(l)
}

// Logger returns the logger installed by SetLogger, or a logger that
// discards everything.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return silent
}
