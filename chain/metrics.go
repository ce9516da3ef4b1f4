package chain

import "time"

//go:generate mockgen -package=mock -source=metrics.go -destination=mock/metrics.go

// MetricsRecorder receives chain lifecycle events
type MetricsRecorder interface {
	RecordChainStarted()
	RecordChainFinished(state string, steps int, duration time.Duration)
	RecordStep(outcome string)
}

// NoopMetrics discards all chain metrics
type NoopMetrics struct{}

func (NoopMetrics) RecordChainStarted()                                                 {}
func (NoopMetrics) RecordChainFinished(state string, steps int, duration time.Duration) {}
func (NoopMetrics) RecordStep(outcome string)                                           {}
