package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.RWMutex
	instance *zap.Logger
)

// Init replaces the process logger.
func Init(cfg Config) {
	Set(build(cfg))
}

// Set installs l as the process logger. Tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	mu.Lock()
	instance = l
	mu.Unlock()
}

// L returns the process logger, creating a dev/info one if Init was never called.
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named returns a child logger tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
