// Package metrics holds the dashboard's counters. The registry is built once
// by the server and passed to the handlers that need it.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// UserVisits counts dashboard visits per user.
const UserVisits = "cueweb_user_visits_total"

// ErrUnknownCounter is returned when incrementing an unregistered counter.
var ErrUnknownCounter = errors.New("unknown counter")

// Registry registers and exports counters.
type Registry interface {
	RegisterCounter(name, help string, labels ...string) error
	Increment(name string, labelValues ...string) error
	ExportText(w io.Writer) error
}

var _ Registry = (*PromRegistry)(nil)

// PromRegistry is a Registry backed by its own prometheus.Registry.
type PromRegistry struct {
	reg *prometheus.Registry

	mu       sync.RWMutex
	counters map[string]*prometheus.CounterVec
}

// NewPromRegistry returns an empty registry.
func NewPromRegistry() *PromRegistry {
	return &PromRegistry{
		reg:      prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
	}
}

// NewDefault returns a registry with the dashboard's counters registered.
func NewDefault() (*PromRegistry, error) {
	r := NewPromRegistry()
	if err := r.RegisterCounter(UserVisits, "Number of dashboard visits per user.", "username"); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterCounter adds a counter vector. Registering the same name twice is
// a no-op.
func (r *PromRegistry) RegisterCounter(name, help string, labels ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counters[name]; ok {
		return nil
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	if err := r.reg.Register(vec); err != nil {
		return fmt.Errorf("register counter %s: %w", name, err)
	}
	r.counters[name] = vec
	return nil
}

// Increment adds one to the counter with the given label values.
func (r *PromRegistry) Increment(name string, labelValues ...string) error {
	r.mu.RLock()
	vec, ok := r.counters[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("increment %s: %w", name, ErrUnknownCounter)
	}
	counter, err := vec.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	counter.Inc()
	return nil
}

// ExportText writes every metric family in the Prometheus text format.
func (r *PromRegistry) ExportText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("export metrics: %w", err)
		}
	}
	return nil
}
