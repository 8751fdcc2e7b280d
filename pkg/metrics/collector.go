// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/veledan/spellbook-bot/internal/state"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of bot updates handled, labeled by action and status",
		},
		[]string{"action", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	catalogSpells = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_spells",
			Help: "Number of spells in the loaded catalog snapshot",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of live sessions per state",
		},
		[]string{"state"},
	)
)

var trackedStates = []state.State{
	state.StateIdle,
	state.StateMenuClass,
	state.StateMenuLevel,
	state.StateMenuSpells,
	state.StateSettings,
	state.StateSpellbook,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(action, status).Inc()
	updateDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// SetCatalogSpells updates the loaded-spells gauge.
func SetCatalogSpells(count int) {
	catalogSpells.Set(float64(count))
}

// SessionCollector periodically gathers session state counts and emits
// gauge metrics.
type SessionCollector struct {
	storage  *state.MemoryStorage
	interval time.Duration
}

// NewSessionCollector builds a collector bound to the in-memory session
// storage.
func NewSessionCollector(storage *state.MemoryStorage, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = time.Minute
	}

	return &SessionCollector{storage: storage, interval: interval}
}

// Run updates session gauges until the context is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *SessionCollector) collect() {
	counts := make(map[state.State]int, len(trackedStates))
	for _, session := range c.storage.Sessions() {
		counts[session.CurrentState]++
	}

	for _, s := range trackedStates {
		sessionsByState.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
