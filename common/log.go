package common

import (
	"log/slog"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

// Logger returns the process-wide structured logger. It is created lazily
// on first use, writing leveled key-value records to stderr; callers that
// need a different sink can install one with SetLogger before any
// component logs anything.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		}
	})
	return logger
}

// SetLogger overrides the process-wide logger, e.g. so tests can silence
// output or the shell driver can point it at a file.
func SetLogger(l *slog.Logger) {
	logger = l
}
