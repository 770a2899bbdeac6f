package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// family is the name/help/type triple every exposed metric shares.
type family struct {
	name   string
	help   string
	kind   string
	labels []string
}

func (f family) writeHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
	return err
}

// key renders values against the family's label names. Missing values
// become "unknown" so a short call never drops a series.
func (f family) key(values []string) string {
	if len(f.labels) == 0 {
		return ""
	}
	parts := make([]string, len(f.labels))
	for i, name := range f.labels {
		v := "unknown"
		if i < len(values) {
			v = values[i]
		}
		parts[i] = name + `="` + escapeLabel(v) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// valueSeries backs counters and gauges: one float per label set.
type valueSeries struct {
	family
	mu   sync.Mutex
	vals map[string]float64
}

func (s *valueSeries) init(kind, name, help string, labels []string) {
	s.family = family{name: name, help: help, kind: kind, labels: labels}
	s.vals = map[string]float64{}
}

func (s *valueSeries) apply(values []string, fn func(float64) float64) {
	k := s.key(values)
	s.mu.Lock()
	s.vals[k] = fn(s.vals[k])
	s.mu.Unlock()
}

func (s *valueSeries) WritePrometheus(w io.Writer) error {
	if err := s.writeHeader(w); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range sortedKeys(s.vals) {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", s.name, k, s.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ valueSeries }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	c := &CounterVec{}
	c.init("counter", name, help, labels)
	return c
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	c.apply(values, func(v float64) float64 { return v + 1 })
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.valueSeries.WritePrometheus(w)
}

type GaugeVec struct{ valueSeries }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	g := &GaugeVec{}
	g.init("gauge", name, help, labels)
	return g
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.apply(values, func(float64) float64 { return v })
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.valueSeries.WritePrometheus(w)
}

// Gauge is an unlabeled GaugeVec.
type Gauge struct{ valueSeries }

func NewGauge(name, help string) *Gauge {
	g := &Gauge{}
	g.init("gauge", name, help, nil)
	return g
}

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.apply(nil, func(float64) float64 { return v })
	}
}

func (g *Gauge) Inc() {
	if g != nil {
		g.apply(nil, func(v float64) float64 { return v + 1 })
	}
}

func (g *Gauge) Dec() {
	if g != nil {
		g.apply(nil, func(v float64) float64 { return v - 1 })
	}
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.valueSeries.WritePrometheus(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// HistogramVec keeps cumulative bucket counts per label set.
type HistogramVec struct {
	family
	bounds []float64
	mu     sync.Mutex
	series map[string]*histogramSeries
}

type histogramSeries struct {
	cumulative []uint64
	sum        float64
	count      uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	return &HistogramVec{
		family: family{name: name, help: help, kind: "histogram", labels: labels},
		bounds: bounds,
		series: map[string]*histogramSeries{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	k := h.key(values)
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.series[k]
	if s == nil {
		s = &histogramSeries{cumulative: make([]uint64, len(h.bounds))}
		h.series[k] = s
	}
	for i := sort.SearchFloat64s(h.bounds, v); i < len(h.bounds); i++ {
		s.cumulative[i]++
	}
	s.sum += v
	s.count++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.writeHeader(w); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.series))
	for k := range h.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := h.series[k]
		for i, bound := range h.bounds {
			le := strconv.FormatFloat(bound, 'g', -1, 64)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, le), s.cumulative[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %f\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), s.count,
			h.name, k, s.sum,
			h.name, k, s.count,
		); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels string, le string) string {
	pair := `le="` + escapeLabel(le) + `"`
	if labels == "" {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}
