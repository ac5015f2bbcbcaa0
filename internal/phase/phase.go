package phase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Name identifies one step of topology construction.
type Name string

const (
	Validate       Name = "validate"
	CellIndexMap   Name = "cell-index-map"
	Classify       Name = "classify"
	Directory      Name = "directory"
	Claim          Name = "claim"
	NumberOwned    Name = "number-owned"
	Offset         Name = "offset"
	Fabric         Name = "fabric"
	RoundA         Name = "round-a"
	RoundB         Name = "round-b"
	FabricClose    Name = "fabric-close"
	Translate      Name = "translate"
	VertexIndexMap Name = "vertex-index-map"
	Assemble       Name = "assemble"
)

// Sequence is the order in which every rank runs the phases.
var Sequence = []Name{
	Validate, CellIndexMap, Classify, Directory, Claim, NumberOwned, Offset,
	Fabric, RoundA, RoundB, FabricClose, Translate, VertexIndexMap, Assemble,
}

// ErrOutOfOrder is returned when a phase is run out of Sequence order.
var ErrOutOfOrder = errors.New("phase: out of order")

// TracerName is the instrumentation name used when no tracer is configured.
const TracerName = "github.com/hupe1980/meshtopo"

// Recorder receives the duration and outcome of every phase.
type Recorder interface {
	RecordPhase(phase string, duration time.Duration, err error)
}

// Error wraps the failure of a phase.
type Error struct {
	Phase Name
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Runner executes the phases of one construction on one rank. It refuses to
// run a phase out of order, so every rank issues the same collectives in the
// same order.
type Runner struct {
	rank     int
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
	next     int
}

// NewRunner returns a runner for rank. A nil logger discards output, a nil
// tracer uses the global provider and a nil recorder records nothing.
func NewRunner(rank int, logger *slog.Logger, tracer trace.Tracer, recorder Recorder) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &Runner{rank: rank, logger: logger, tracer: tracer, recorder: recorder}
}

// Run executes fn as phase name. name must be the next phase of Sequence.
func (r *Runner) Run(ctx context.Context, name Name, fn func(ctx context.Context) error) error {
	if r.next >= len(Sequence) || Sequence[r.next] != name {
		want := Name("<done>")
		if r.next < len(Sequence) {
			want = Sequence[r.next]
		}
		return &Error{Phase: name, Err: fmt.Errorf("%w: expected %s", ErrOutOfOrder, want)}
	}
	r.next++

	ctx, span := r.tracer.Start(ctx, "meshtopo."+string(name),
		trace.WithAttributes(attribute.Int("meshtopo.rank", r.rank)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if r.recorder != nil {
		r.recorder.RecordPhase(string(name), elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "phase failed", "rank", r.rank, "phase", string(name), "duration", elapsed, "error", err)
		return &Error{Phase: name, Err: err}
	}
	r.logger.DebugContext(ctx, "phase completed", "rank", r.rank, "phase", string(name), "duration", elapsed)
	return nil
}

// Done reports whether every phase has run.
func (r *Runner) Done() bool { return r.next == len(Sequence) }
