package logging

import "time"

// Console timestamps carry milliseconds so back-to-back job launches stay ordered.
const consoleTimeLayout = "2006-01-02 15:04:05.000"

func formatConsoleTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}
