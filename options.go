package meshtopo

import (
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel/trace"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	tracer           trace.Tracer
	seed             uint64
	parallelism      int
	entities         EntityComputer
	connectivity     ConnectivityComputer
	permutations     PermutationComputer
}

// Option configures CreateTopology.
type Option func(*options)

// WithLogger configures structured logging for construction phases.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := meshtopo.NewJSONLogger(slog.LevelDebug)
//	topo, _ := meshtopo.CreateTopology(ctx, c, cells, orig, owners, cell.Triangle,
//	    meshtopo.GhostNone, meshtopo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for construction
// phases. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &meshtopo.BasicMetricsCollector{}
//	topo, _ := meshtopo.CreateTopology(ctx, c, cells, orig, owners, cell.Triangle,
//	    meshtopo.GhostNone, meshtopo.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTracer sets the OpenTelemetry tracer for phase spans. By default the
// global tracer provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithSeed sets the seed of the generator that orders sharing lists and thus
// picks owners. Every rank must use the same seed. Default 0.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithParallelism bounds the goroutines used for local-only work.
// Values < 1 mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithEntityComputer replaces the default entity computation.
func WithEntityComputer(ec EntityComputer) Option {
	return func(o *options) {
		o.entities = ec
	}
}

// WithConnectivityComputer replaces the default connectivity computation.
func WithConnectivityComputer(cc ConnectivityComputer) Option {
	return func(o *options) {
		o.connectivity = cc
	}
}

// WithPermutationComputer replaces the default permutation computation.
func WithPermutationComputer(pc PermutationComputer) Option {
	return func(o *options) {
		o.permutations = pc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		entities:         defaultEntityComputer{},
		connectivity:     defaultConnectivityComputer{},
		permutations:     defaultPermutationComputer{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism < 1 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	if o.entities == nil {
		o.entities = defaultEntityComputer{}
	}
	if o.connectivity == nil {
		o.connectivity = defaultConnectivityComputer{}
	}
	if o.permutations == nil {
		o.permutations = defaultPermutationComputer{}
	}
	return o
}
