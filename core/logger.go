package core

// Logger is the app-wide logging interface. Implementations may inspect
// variadic args for well-known types (errors, the acting employee) to enrich
// reports.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
