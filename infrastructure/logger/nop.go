package logger

// NoOpLogger discards everything. Tests use it as the injected logger.
type NoOpLogger struct{}

// NewNop returns a Logger that discards all entries.
func NewNop() Logger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(string, ...Field) {}
func (l *NoOpLogger) Info(string, ...Field)  {}
func (l *NoOpLogger) Warn(string, ...Field)  {}
func (l *NoOpLogger) Error(string, ...Field) {}

// Fatal does not exit.
func (l *NoOpLogger) Fatal(string, ...Field) {}

func (l *NoOpLogger) With(...Field) Logger { return l }

func (l *NoOpLogger) Sync() error { return nil }
