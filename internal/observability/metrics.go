package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Narrator call status labels.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusFallback = "fallback"
)

// Metrics holds the dungeon's Prometheus collectors.
type Metrics struct {
	TurnsTotal            *prometheus.CounterVec
	TurnDuration          prometheus.Histogram
	ResourceAuditTotal    *prometheus.CounterVec
	CombatsEndedTotal     *prometheus.CounterVec
	LootClaimedGoldTotal  prometheus.Counter
	NarratorRequestsTotal *prometheus.CounterVec
	NarratorDuration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chaos_turns_total",
				Help: "Total number of resolved turns by outcome kind",
			},
			[]string{"outcome"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chaos_turn_duration_seconds",
				Help:    "Turn resolution duration in seconds, narration excluded",
				Buckets: prometheus.DefBuckets,
			},
		),
		ResourceAuditTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chaos_resource_audit_total",
				Help: "Narrator resource proposals by audit action and field",
			},
			[]string{"action", "field"},
		),
		CombatsEndedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chaos_combats_ended_total",
				Help: "Total number of finished encounters by result",
			},
			[]string{"result"},
		),
		LootClaimedGoldTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chaos_loot_claimed_gold_total",
				Help: "Gold credited through loot claims",
			},
		),
		NarratorRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chaos_narrator_requests_total",
				Help: "Narrator calls by operation and status",
			},
			[]string{"op", "status"},
		),
		NarratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chaos_narrator_duration_seconds",
				Help:    "Narrator call duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(
		m.TurnsTotal,
		m.TurnDuration,
		m.ResourceAuditTotal,
		m.CombatsEndedTotal,
		m.LootClaimedGoldTotal,
		m.NarratorRequestsTotal,
		m.NarratorDuration,
	)
	return m
}

// RecordNarratorCall records one narrator call's status and latency.
func (m *Metrics) RecordNarratorCall(op, status string, d time.Duration) {
	m.NarratorRequestsTotal.WithLabelValues(op, status).Inc()
	m.NarratorDuration.WithLabelValues(op).Observe(d.Seconds())
}
