// Package prom provides a Prometheus implementation of
// meshtopo.MetricsCollector.
//
//	reg := prometheus.NewRegistry()
//	mc, err := prom.New(reg)
//	...
//	topo, err := meshtopo.CreateTopology(ctx, c, cells, orig, owners, ct, mode,
//	    meshtopo.WithMetricsCollector(mc))
//	http.Handle("/metrics", prom.Handler(reg))
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/meshtopo"
)

const namespace = "meshtopo"

// Collector records construction phases and topology sizes.
type Collector struct {
	phaseLatency *prometheus.HistogramVec
	phaseErrors  *prometheus.CounterVec
	topologies   prometheus.Counter
	owned        prometheus.Gauge
	ghosts       prometheus.Gauge
	cells        prometheus.Gauge
}

var _ meshtopo.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		phaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of topology construction phases",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"phase", "status"}),
		phaseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_errors_total",
			Help:      "Total failed construction phases",
		}, []string{"phase"}),
		topologies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topologies_total",
			Help:      "Total topologies built on this process",
		}),
		owned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "owned_vertices",
			Help:      "Vertices owned by the last topology built",
		}),
		ghosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ghost_vertices",
			Help:      "Ghost vertices of the last topology built",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cells",
			Help:      "Cells of the last topology built",
		}),
	}
	for _, m := range []prometheus.Collector{c.phaseLatency, c.phaseErrors, c.topologies, c.owned, c.ghosts, c.cells} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordPhase implements meshtopo.MetricsCollector.
func (c *Collector) RecordPhase(phase string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		c.phaseErrors.WithLabelValues(phase).Inc()
	}
	c.phaseLatency.WithLabelValues(phase, status).Observe(duration.Seconds())
}

// RecordTopology implements meshtopo.MetricsCollector.
func (c *Collector) RecordTopology(ownedVertices, ghostVertices, cells int) {
	c.topologies.Inc()
	c.owned.Set(float64(ownedVertices))
	c.ghosts.Set(float64(ghostVertices))
	c.cells.Set(float64(cells))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
