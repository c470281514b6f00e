// Package logger defines the logging interface the simulator packages depend
// on. The zerolog implementation lives in infra/logger.
package logger

// Logger is a leveled, component-scoped logger.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields, e.g. a published frame.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a child logger that adds the field to every entry, such as
	// the charge point tag of an agent.
	With(key string, value any) Logger
}
