package pipeline

import "log"

// Logf records a diagnostic progress message. The pipeline only reports
// stage names and dimensions through it; a nil Logf discards everything,
// which is what tests use.
type Logf func(format string, args ...any)

func (f Logf) printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// StdLog forwards pipeline diagnostics to the standard library logger.
var StdLog Logf = log.Printf
