package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StageMetrics mirrors stage counters and warnings into Prometheus
// collectors, keeping an internal snapshot for programmatic access.
type StageMetrics struct {
	mu sync.RWMutex

	// Per-stage counter values, mirrored from Entity counter tables.
	stageCounters map[string]map[string]uint64

	countersTotal *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

func newStageCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowscope",
			Subsystem: "stage",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewStageMetrics creates a metrics mirror. A nil registerer falls back to
// the default one.
func NewStageMetrics(registerer prometheus.Registerer) *StageMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &StageMetrics{
		stageCounters: make(map[string]map[string]uint64),
		registerer:    registerer,
		countersTotal: newStageCounterVec("counter_total", "Total bumps per stage counter", []string{"stage", "counter"}),
		warningsTotal: newStageCounterVec("warnings_total", "Total warnings raised per stage and kind", []string{"stage", "kind"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *StageMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}
	for _, c := range []prometheus.Collector{m.countersTotal, m.warningsTotal} {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	m.registered = true
	return nil
}

// RecordBump mirrors one counter increment.
func (m *StageMetrics) RecordBump(stage, counter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters, ok := m.stageCounters[stage]
	if !ok {
		counters = make(map[string]uint64)
		m.stageCounters[stage] = counters
	}
	counters[counter]++
	m.countersTotal.WithLabelValues(stage, counter).Inc()
}

// RecordWarn mirrors one raised warning.
func (m *StageMetrics) RecordWarn(stage, kind string) {
	m.warningsTotal.WithLabelValues(stage, kind).Inc()
}

// Snapshot returns a copy of the mirrored counter values.
func (m *StageMetrics) Snapshot() map[string]map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]uint64, len(m.stageCounters))
	for stage, counters := range m.stageCounters {
		cp := make(map[string]uint64, len(counters))
		for k, v := range counters {
			cp[k] = v
		}
		out[stage] = cp
	}
	return out
}

// Reset clears the mirror and the collectors (useful for testing).
func (m *StageMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stageCounters = make(map[string]map[string]uint64)
	m.countersTotal.Reset()
	m.warningsTotal.Reset()
}

var (
	bufferedDesc = prometheus.NewDesc(
		"flowscope_stage_buffered",
		"Live buffered object count per stage side",
		[]string{"stage", "side"}, nil,
	)
	watermarkDesc = prometheus.NewDesc(
		"flowscope_stage_watermark",
		"Configured high watermark per stage side",
		[]string{"stage", "side"}, nil,
	)
)

// bufferCollector exposes live buffering state by walking the scope's stages
// at scrape time.
type bufferCollector struct {
	scope *Scope
}

// NewBufferCollector returns a Prometheus collector for the live buffer
// gauges of every stage in the scope.
func NewBufferCollector(scope *Scope) prometheus.Collector {
	return &bufferCollector{scope: scope}
}

func (c *bufferCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bufferedDesc
	ch <- watermarkDesc
}

func (c *bufferCollector) Collect(ch chan<- prometheus.Metric) {
	for _, snap := range c.scope.Snapshot() {
		ch <- prometheus.MustNewConstMetric(bufferedDesc, prometheus.GaugeValue,
			float64(snap.ReadableBuffered), snap.Name, "readable")
		ch <- prometheus.MustNewConstMetric(bufferedDesc, prometheus.GaugeValue,
			float64(snap.WritableBuffered), snap.Name, "writable")
		ch <- prometheus.MustNewConstMetric(watermarkDesc, prometheus.GaugeValue,
			float64(snap.ReadableHWM), snap.Name, "readable")
		ch <- prometheus.MustNewConstMetric(watermarkDesc, prometheus.GaugeValue,
			float64(snap.WritableHWM), snap.Name, "writable")
	}
}
