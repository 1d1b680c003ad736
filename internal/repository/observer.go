package repository

import "time"

// QueryObserver receives per-query timings. MetricsService satisfies it.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type queryTimer struct {
	observer QueryObserver
}

func (t queryTimer) start(label string) func() {
	if t.observer == nil {
		return func() {}
	}
	began := time.Now()
	return func() { t.observer.ObserveDBQuery(label, time.Since(began)) }
}
