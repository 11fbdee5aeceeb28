package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain.repository.Metrics using Prometheus.
// It owns a private registry so a batch run can dump it to a textfile.
type Recorder struct {
	registry *prometheus.Registry
	textfile string

	passDuration  *prometheus.HistogramVec
	symbolsTotal  *prometheus.CounterVec
	macroAttempts *prometheus.CounterVec
	regimeInfo    *prometheus.GaugeVec
	exposure      prometheus.Histogram
	lastRun       prometheus.Gauge
}

// New creates a new Prometheus metrics recorder. An empty textfile disables Flush.
func New(textfile string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := func(c prometheus.Collector) prometheus.Collector {
		reg.MustRegister(c)
		return c
	}

	return &Recorder{
		registry: reg,
		textfile: textfile,
		passDuration: factory(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aion_pass_duration_seconds",
				Help:    "Duration of a pipeline stage in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		)).(*prometheus.HistogramVec),
		symbolsTotal: factory(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aion_symbols_processed_total",
				Help: "Symbols handled per stage by outcome",
			},
			[]string{"stage", "result"},
		)).(*prometheus.CounterVec),
		macroAttempts: factory(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aion_macro_source_attempts_total",
				Help: "Macro snapshot source attempts by outcome",
			},
			[]string{"source", "result"},
		)).(*prometheus.CounterVec),
		regimeInfo: factory(prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aion_regime_confidence",
				Help: "Confidence of the current regime label",
			},
			[]string{"label"},
		)).(*prometheus.GaugeVec),
		exposure: factory(prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aion_policy_exposure_scale",
				Help:    "Distribution of computed exposure scales",
				Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 2},
			},
		)).(prometheus.Histogram),
		lastRun: factory(prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aion_last_flush_timestamp_seconds",
				Help: "Unix time of the last metrics flush",
			},
		)).(prometheus.Gauge),
	}
}

// Registry exposes the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePass records the duration of a pipeline stage.
func (r *Recorder) ObservePass(stage string, d time.Duration) {
	r.passDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSymbol counts one symbol outcome for a stage.
func (r *Recorder) RecordSymbol(stage, result string) {
	r.symbolsTotal.WithLabelValues(stage, result).Inc()
}

// RecordMacroAttempt counts one macro source attempt.
func (r *Recorder) RecordMacroAttempt(source, result string) {
	r.macroAttempts.WithLabelValues(source, result).Inc()
}

// RecordRegime sets the current label's confidence; other labels drop to zero.
func (r *Recorder) RecordRegime(label string, confidence float64) {
	r.regimeInfo.Reset()
	r.regimeInfo.WithLabelValues(label).Set(confidence)
}

// ObserveExposure records a computed exposure scale.
func (r *Recorder) ObserveExposure(scale float64) {
	r.exposure.Observe(scale)
}

// Flush writes the registry to the configured textfile.
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	r.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(r.textfile, r.registry)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObservePass(string, time.Duration) {}
func (Nop) RecordSymbol(string, string) {}
func (Nop) RecordMacroAttempt(string, string) {}
func (Nop) RecordRegime(string, float64) {}
func (Nop) ObserveExposure(float64) {}
func (Nop) Flush() error { return nil }
