package tracer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Summary is the derived view over one named sample series: §4.5 requires
// count/sum/mean/min/max, with empty series omitted from the caller's
// result map entirely (never a zero-valued Summary).
type Summary struct {
	Count int
	Sum   float64
	Mean  float64
	Min   float64
	Max   float64
}

// MetricsCollector accepts (name, value) samples and derives a Summary per
// name on request, while also exporting each series as a scrapeable
// prometheus.Summary so the same samples are visible to both the
// process-internal summary() contract the spec names and an external
// metrics scraper — a capability the teacher's go.mod lists
// prometheus/client_golang for but never exercises in the copied core.
type MetricsCollector struct {
	mu       sync.Mutex
	samples  map[string][]float64
	registry *prometheus.Registry
	promSums map[string]prometheus.Summary
	namespace string
}

// NewMetricsCollector creates a collector that registers its prometheus
// series under namespace (e.g. "orchestrator").
func NewMetricsCollector(namespace string) *MetricsCollector {
	return &MetricsCollector{
		samples:   make(map[string][]float64),
		registry:  prometheus.NewRegistry(),
		promSums:  make(map[string]prometheus.Summary),
		namespace: namespace,
	}
}

// Registry exposes the underlying prometheus.Registry for a host to mount on
// an HTTP handler (e.g. via promhttp.HandlerFor), matching §9's
// observability-is-host-layer stance: the core never starts its own listener.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records value under name, lazily registering a prometheus.Summary
// for a name seen for the first time.
func (m *MetricsCollector) Observe(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples[name] = append(m.samples[name], value)

	s, ok := m.promSums[name]
	if !ok {
		s = prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      "orchestrator sample series: " + name,
		})
		// Each collector owns its own registry and registers a given name
		// only once, so the registration error is not checked.
		_ = m.registry.Register(s)
		m.promSums[name] = s
	}
	s.Observe(value)
}

// Summary computes the derived view for name. ok is false if name has no
// recorded samples.
func (m *MetricsCollector) Summary(name string) (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := m.samples[name]
	if len(values) == 0 {
		return Summary{}, false
	}

	sum := 0.0
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return Summary{
		Count: len(values),
		Sum:   sum,
		Mean:  sum / float64(len(values)),
		Min:   min,
		Max:   max,
	}, true
}

// Summaries returns the derived view for every series with at least one
// sample, keyed by name. Series with zero samples are never created (there
// is no way to record a name with no Observe call), so no omission logic is
// needed beyond what the map naturally expresses.
func (m *MetricsCollector) Summaries() map[string]Summary {
	m.mu.Lock()
	names := make([]string, 0, len(m.samples))
	for name := range m.samples {
		names = append(names, name)
	}
	m.mu.Unlock()

	out := make(map[string]Summary, len(names))
	for _, name := range names {
		if s, ok := m.Summary(name); ok {
			out[name] = s
		}
	}
	return out
}
