package core

// Logger is the app-wide logging interface.
// args may hold errors, maps of extra data or the user acting on the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the user on whose behalf something is logged.
type LogPerson struct {
	ID    string
	Name  string
	Email string
}
