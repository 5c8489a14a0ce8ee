package metrics

import (
	"io"
	"sort"
	"strings"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Prefix is prepended to every metric name
const Prefix = "listentg_"

// Registry is a set of metrics exposed in Prometheus text format
type Registry struct {
	set *vm.Set
}

// NewRegistry creates a new, unregistered metrics registry
func NewRegistry() *Registry {
	return &Registry{set: vm.NewSet()}
}

var globalRegistry = newGlobalRegistry()

func newGlobalRegistry() *Registry {
	r := NewRegistry()
	vm.RegisterSet(r.set)
	return r
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}

// IncrementCounter increments a counter metric
func (r *Registry) IncrementCounter(name string, labels map[string]string) {
	r.set.GetOrCreateCounter(metricName(name, labels)).Inc()
}

// AddToCounter adds a non-negative value to a counter metric
func (r *Registry) AddToCounter(name string, value float64, labels map[string]string) {
	if value < 0 {
		return
	}
	r.set.GetOrCreateFloatCounter(metricName(name, labels)).Add(value)
}

// RecordDuration records a timing measurement in seconds
func (r *Registry) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	r.set.GetOrCreateHistogram(metricName(name, labels)).Update(duration.Seconds())
}

// RecordValue records a sample of a non-time distribution such as a size
func (r *Registry) RecordValue(name string, value float64, labels map[string]string) {
	r.set.GetOrCreateHistogram(metricName(name, labels)).Update(value)
}

// SetGauge sets a gauge metric value
func (r *Registry) SetGauge(name string, value float64, labels map[string]string) {
	r.set.GetOrCreateGauge(metricName(name, labels), nil).Set(value)
}

// AddToGauge adjusts a gauge metric by delta
func (r *Registry) AddToGauge(name string, delta float64, labels map[string]string) {
	r.set.GetOrCreateGauge(metricName(name, labels), nil).Add(delta)
}

// WritePrometheus writes the registry in Prometheus text format
func (r *Registry) WritePrometheus(w io.Writer) {
	r.set.WritePrometheus(w)
}

// metricName renders name{k="v",...} with labels in sorted order, the form
// VictoriaMetrics expects labels to be embedded in.
func metricName(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return Prefix + name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(labelEscaper.Replace(labels[k]))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Global convenience functions

// IncrementCounter increments a counter in the global registry
func IncrementCounter(name string, labels map[string]string) {
	globalRegistry.IncrementCounter(name, labels)
}

// AddToCounter adds to a counter in the global registry
func AddToCounter(name string, value float64, labels map[string]string) {
	globalRegistry.AddToCounter(name, value, labels)
}

// RecordDuration records a timing in the global registry
func RecordDuration(name string, duration time.Duration, labels map[string]string) {
	globalRegistry.RecordDuration(name, duration, labels)
}

// RecordValue records a sample in the global registry
func RecordValue(name string, value float64, labels map[string]string) {
	globalRegistry.RecordValue(name, value, labels)
}

// SetGauge sets a gauge in the global registry
func SetGauge(name string, value float64, labels map[string]string) {
	globalRegistry.SetGauge(name, value, labels)
}

// AddToGauge adjusts a gauge in the global registry
func AddToGauge(name string, delta float64, labels map[string]string) {
	globalRegistry.AddToGauge(name, delta, labels)
}

// WritePrometheus writes every registered metric set plus process metrics
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}
