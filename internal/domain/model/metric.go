// Package model contains domain models passed between layers.
package model

import "github.com/okian/recapdeck/internal/domain/dataset"

// Metric is a named value discovered by label search.
type Metric struct {
	Name  string
	Value dataset.Cell
}

// MetricSet is the ordered collection of metrics extracted for one
// generation. The first value recorded under a name wins.
type MetricSet struct {
	order  []string
	values map[string]Metric
}

// NewMetricSet returns an empty set.
func NewMetricSet() *MetricSet {
	return &MetricSet{values: make(map[string]Metric)}
}

// Add records value under name unless the name is already taken.
// It reports whether the value was stored.
func (s *MetricSet) Add(name string, value dataset.Cell) bool {
	if _, ok := s.values[name]; ok {
		return false
	}
	s.order = append(s.order, name)
	s.values[name] = Metric{Name: name, Value: value}
	return true
}

// Get returns the metric recorded under name.
func (s *MetricSet) Get(name string) (Metric, bool) {
	if s == nil {
		return Metric{}, false
	}
	m, ok := s.values[name]
	return m, ok
}

// Value returns the cell recorded under name, empty when absent.
func (s *MetricSet) Value(name string) dataset.Cell {
	m, _ := s.Get(name)
	return m.Value
}

// Names lists metric names in insertion order.
func (s *MetricSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len is the number of metrics.
func (s *MetricSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Snapshot renders every metric as raw text, for reports and logs.
func (s *MetricSet) Snapshot() map[string]string {
	out := make(map[string]string, s.Len())
	for _, n := range s.Names() {
		out[n] = s.values[n].Value.String()
	}
	return out
}
