package logger

// NoOpLogger discards every entry. Tests use it where log output is irrelevant.
type NoOpLogger struct{}

// NewNop creates a new no-op logger instance.
func NewNop() Logger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(string, ...Field) {}

// Info does nothing.
func (l *NoOpLogger) Info(string, ...Field) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(string, ...Field) {}

// Error does nothing.
func (l *NoOpLogger) Error(string, ...Field) {}

// Fatal does nothing (does not exit in no-op mode).
func (l *NoOpLogger) Fatal(string, ...Field) {}

// With returns the same no-op logger.
func (l *NoOpLogger) With(...Field) Logger {
	return l
}

// Sync does nothing and returns nil.
func (l *NoOpLogger) Sync() error {
	return nil
}
