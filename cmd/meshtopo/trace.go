package main

import (
	"context"
	"strings"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// phaseTiming aggregates the spans of one phase over all ranks.
type phaseTiming struct {
	Name  string
	Spans int
	Total time.Duration
	Max   time.Duration
}

// spanCollector is a sdktrace.SpanExporter that keeps per-phase timings.
type spanCollector struct {
	mu     sync.Mutex
	order  []string
	phases map[string]*phaseTiming
}

var _ sdktrace.SpanExporter = (*spanCollector)(nil)

func (s *spanCollector) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phases == nil {
		s.phases = make(map[string]*phaseTiming)
	}
	for _, span := range spans {
		name := strings.TrimPrefix(span.Name(), "meshtopo.")
		p, ok := s.phases[name]
		if !ok {
			p = &phaseTiming{Name: name}
			s.phases[name] = p
			s.order = append(s.order, name)
		}
		d := span.EndTime().Sub(span.StartTime())
		p.Spans++
		p.Total += d
		p.Max = max(p.Max, d)
	}
	return nil
}

func (s *spanCollector) Shutdown(context.Context) error { return nil }

// summary returns the timings in first-seen phase order.
func (s *spanCollector) summary() []phaseTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]phaseTiming, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.phases[name])
	}
	return out
}
