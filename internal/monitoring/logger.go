// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Loader, pipeline and viewer diagnostics all go
// through it so a test can capture or mute them.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger and returns a function that restores
// the previous one. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) (restore func()) {
	prev := Logf
	if f == nil {
		Logf = func(string, ...interface{}) {}
	} else {
		Logf = f
	}
	return func() { Logf = prev }
}

// Quiet mutes Logf until the returned function is called.
func Quiet() (restore func()) {
	return SetLogger(nil)
}
