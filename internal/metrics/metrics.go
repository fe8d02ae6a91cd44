// Package metrics holds the Prometheus collectors of the platehub server.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector on one private registry.
type Metrics struct {
	Registry   *prometheus.Registry
	Collection *CollectionMetrics
	HTTP       *HTTPMetrics
}

func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}

	col, err := NewCollectionMetrics(reg)
	if err != nil {
		return nil, err
	}
	h, err := NewHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Metrics{Registry: reg, Collection: col, HTTP: h}, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// GaugeFunc registers a gauge whose value is read at scrape time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	if err := m.Registry.Register(g); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}
