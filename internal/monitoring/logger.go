package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var anomalies atomic.Int64

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Anomalyf reports a non-fatal data anomaly, such as a sign with no display
// asset. The message goes through Logf and the anomaly counter is bumped.
func Anomalyf(format string, v ...interface{}) {
	anomalies.Add(1)
	Logf("anomaly: "+format, v...)
}

// Anomalies returns the number of anomalies reported since start or the
// last ResetAnomalies.
func Anomalies() int64 {
	return anomalies.Load()
}

// ResetAnomalies zeroes the anomaly counter.
func ResetAnomalies() {
	anomalies.Store(0)
}
