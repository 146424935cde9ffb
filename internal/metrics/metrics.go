package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	// Router counters
	CallbacksTotal *prometheus.CounterVec
	CommandsTotal  *prometheus.CounterVec
	Unauthorized   prometheus.Counter

	// Ad-account gateway
	AdsAPIErrorsTotal *prometheus.CounterVec

	// Creative generation
	ImagesGeneratedTotal prometheus.Counter
	ImagesSkippedTotal   prometheus.Counter
	GenerationRunsTotal  *prometheus.CounterVec

	// Scheduled reporting and workspace sync
	ReportRunsTotal *prometheus.CounterVec
	SyncRunsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		CallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_callbacks_total",
				Help: "Total number of callback actions dispatched",
			},
			[]string{"kind"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_commands_total",
				Help: "Total number of chat commands handled",
			},
			[]string{"command"},
		),
		Unauthorized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adbot_unauthorized_total",
				Help: "Total number of silently dropped unauthorized updates",
			},
		),
		AdsAPIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_ads_api_errors_total",
				Help: "Total number of classified ad-platform API errors",
			},
			[]string{"kind"},
		),
		ImagesGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adbot_images_generated_total",
				Help: "Total number of ad images produced",
			},
		),
		ImagesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adbot_images_skipped_total",
				Help: "Total number of ad images skipped after model exhaustion",
			},
		),
		GenerationRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_generation_runs_total",
				Help: "Total number of generation runs by outcome",
			},
			[]string{"outcome"},
		),
		ReportRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_report_runs_total",
				Help: "Total number of scheduled report runs by outcome",
			},
			[]string{"outcome"},
		),
		SyncRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbot_sync_runs_total",
				Help: "Total number of workspace sync runs by outcome",
			},
			[]string{"outcome"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.CallbacksTotal,
		m.CommandsTotal,
		m.Unauthorized,
		m.AdsAPIErrorsTotal,
		m.ImagesGeneratedTotal,
		m.ImagesSkippedTotal,
		m.GenerationRunsTotal,
		m.ReportRunsTotal,
		m.SyncRunsTotal,
	)

	return m
}

// Registry returns the underlying registry for the HTTP handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
