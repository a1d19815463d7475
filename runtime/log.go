package runtime

import (
	"sync"

	"go.uber.org/zap"
)

// Package-private diagnostics, off by default. SetLogger lets an embedding
// process (cmd/chicrtctl, or any Go caller) opt into one-line-per-event
// logging of allocator installs, resize/rehash, and recovered teardown
// panics without the runtime package ever linking a concrete sink itself.
var (
	logMu  sync.RWMutex
	logger *zap.SugaredLogger // nil means silent
)

// SetLogger installs (or, with nil, removes) the package's diagnostics sink.
func SetLogger(l *zap.SugaredLogger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

func logDebug(msg string, kv ...interface{}) {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	if l != nil {
		l.Debugw(msg, kv...)
	}
}

func logWarn(msg string, kv ...interface{}) {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	if l != nil {
		l.Warnw(msg, kv...)
	}
}
