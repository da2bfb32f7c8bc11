// Package metrics exposes Prometheus collectors for Collatz queries.
//
// Collectors (namespace "collatz"):
//
//	collatz_queries_total{kind,outcome}   counter
//	collatz_query_duration_seconds{kind}  histogram
//	collatz_memo_records_total            counter
//	collatz_candidates_explored_total     counter
//	collatz_memo_entries                  gauge
//
// kind is "find", "length" or "trajectory"; outcome is one of the Outcome
// constants.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/u128"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeOverflow  = "overflow"
	OutcomeNotFound  = "not_found"
	OutcomeMemoLimit = "memo_limit"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Query kinds.
const (
	KindFind       = "find"
	KindLength     = "length"
	KindTrajectory = "trajectory"
)

// Recorder owns the collectors. A nil *Recorder is a valid no-op.
type Recorder struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  prometheus.Counter
	explored prometheus.Counter
	memo     prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collatz",
			Name:      "queries_total",
			Help:      "Queries served, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "collatz",
			Name:      "query_duration_seconds",
			Help:      "Wall time per query.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"kind"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collatz",
			Name:      "memo_records_total",
			Help:      "Path lengths written into memos.",
		}),
		explored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collatz",
			Name:      "candidates_explored_total",
			Help:      "Start candidates examined by Find.",
		}),
		memo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "collatz",
			Name:      "memo_entries",
			Help:      "Entries in the most recently used memo.",
		}),
	}
	for _, c := range []prometheus.Collector{r.queries, r.duration, r.records, r.explored, r.memo} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OnRecord returns a hook for collatz.WithOnRecord.
func (r *Recorder) OnRecord() func(u128.Uint128, int) {
	if r == nil {
		return nil
	}
	return func(u128.Uint128, int) { r.records.Inc() }
}

// ObserveFind records one Find call.
func (r *Recorder) ObserveFind(res collatz.Result, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Observe(KindFind, err, elapsed)
	if err == nil {
		r.explored.Add(float64(res.Explored))
		r.memo.Set(float64(res.MemoSize))
	}
}

// Observe records one query of the given kind.
func (r *Recorder) Observe(kind string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(kind, Classify(err)).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetMemoEntries reports the size of a memo.
func (r *Recorder) SetMemoEntries(n int) {
	if r == nil {
		return
	}
	r.memo.Set(float64(n))
}

// Classify maps a query error to an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, collatz.ErrOverflow):
		return OutcomeOverflow
	case errors.Is(err, collatz.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, collatz.ErrMemoLimit):
		return OutcomeMemoLimit
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
