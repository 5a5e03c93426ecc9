package ratelimit

import "time"

// Recorder is the metrics backend contract. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpRecorder discards all measurements. It is the default so the hot path
// never needs a nil check.
type NoOpRecorder struct{}

func (n *NoOpRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpRecorder) Observe(name string, value float64, tags map[string]string) {}

const (
	metricDecision = "ratelimit.decision"
	metricLatency  = "ratelimit.latency"
)

func record(r Recorder, strategy string, start time.Time, status Status, err error) {
	outcome := "allowed"

	switch {
	case err != nil:
		outcome = "error"
	case status.ShouldLimit():
		outcome = "limited"
	}

	tags := map[string]string{"strategy": strategy, "outcome": outcome}

	r.Add(metricDecision, 1, tags)
	r.Observe(metricLatency, time.Since(start).Seconds(), tags)
}
