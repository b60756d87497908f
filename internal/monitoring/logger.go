// Package monitoring holds the package-level diagnostic logger shared by the
// trip pipeline. Cleaning a malformed trip file produces recoverable warnings
// (unparseable waveform tokens, non-numeric scalar cells) that are reported
// here rather than failing the batch.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
