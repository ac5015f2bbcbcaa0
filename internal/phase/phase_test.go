package phase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recorder struct {
	mu     sync.Mutex
	phases []string
	errs   int
}

func (r *recorder) RecordPhase(phase string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
	if err != nil {
		r.errs++
	}
}

func TestRunner_Sequence(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	rec := &recorder{}
	r := NewRunner(0, nil, tp.Tracer("test"), rec)
	for _, name := range Sequence {
		require.NoError(t, r.Run(context.Background(), name, func(context.Context) error { return nil }))
	}
	assert.True(t, r.Done())
	assert.Len(t, rec.phases, len(Sequence))
	assert.Equal(t, "validate", rec.phases[0])

	spans := exporter.GetSpans()
	require.Len(t, spans, len(Sequence))
	assert.Equal(t, "meshtopo.assemble", spans[len(spans)-1].Name)

	err := r.Run(context.Background(), Validate, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestRunner_OutOfOrder(t *testing.T) {
	r := NewRunner(1, nil, nil, nil)
	called := false
	err := r.Run(context.Background(), Directory, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrOutOfOrder)
	assert.False(t, called)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Directory, perr.Phase)
}

func TestRunner_Failure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	r := NewRunner(0, nil, nil, rec)

	err := r.Run(context.Background(), Validate, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "validate: boom", err.Error())
	assert.Equal(t, 1, rec.errs)
	assert.False(t, r.Done())
}
