// Package logging provides the one zap.Logger instance shared by
// assemble and cmd/wasm2kt.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the shared logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the shared logger. This must be called before
// any translation work starts; cmd/wasm2kt calls it once, from -v.
func SetLogger(l *zap.Logger) {
	logger = l
}
