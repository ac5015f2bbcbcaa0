package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/hupe1980/meshtopo"
	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/comm/tcp"
	"github.com/hupe1980/meshtopo/metrics/prom"
	"github.com/hupe1980/meshtopo/testutil"
)

// rankReport summarises the topology built on one rank.
type rankReport struct {
	Rank           int
	Owned          int32
	Ghosts         int32
	GlobalVertices int64
	Cells          int
	Boundary       int
	Entities       map[int]int32
	Stats          comm.Stats
	Elapsed        time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Partition a generated mesh and build its distributed topology",
		Long: `Generate a unit interval, square or cube, partition it over the
configured ranks and build the distributed topology on every rank.

With transport "local" all ranks run in this process. With transport "tcp"
this process is one rank; start one process per entry of transport.peers.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "config file (default ./meshtopo.yaml)")
	f.Int("ranks", defaultRanks, "number of ranks")
	f.Uint64("seed", 0, "partition and ownership seed")
	f.String("ghost-mode", "none", "ghost mode: none or shared_facet")
	f.IntSlice("entities", nil, "entity dimensions to create")
	f.Bool("permutations", false, "compute entity permutations")
	f.Bool("trace", false, "print per-phase span timings")
	f.String("mesh", "square", "mesh kind: interval, square or cube")
	f.Int("n", defaultN, "cells per direction")
	f.String("cell", "", "cell type (default: simplex of the mesh kind)")
	f.String("transport", "local", "transport: local or tcp")
	f.Int("rank", 0, "rank of this process (tcp)")
	f.StringSlice("peers", nil, "listen address of every rank (tcp)")
	f.String("compression", "none", "payload compression: none, lz4 or zstd (tcp)")
	f.String("bandwidth", "", "outgoing bandwidth limit, e.g. 50MB (tcp)")
	f.String("log-level", "warn", "log level")
	f.String("log-format", "text", "log format: text or json")
	f.String("metrics", "", "serve Prometheus metrics on this address")
	return cmd
}

func generate(cfg *Config, ct cell.Type) *testutil.Mesh {
	switch cfg.Mesh.Kind {
	case "interval":
		return testutil.UnitInterval(cfg.Mesh.N)
	case "cube":
		return testutil.UnitCube(cfg.Mesh.N, ct)
	}
	return testutil.UnitSquare(cfg.Mesh.N, ct)
}

func execute(ctx context.Context, cfg *Config, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ct, err := cfg.CellType()
	if err != nil {
		return err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	parts := testutil.Partition(generate(cfg, ct), cfg.Ranks, cfg.Seed)
	logger := cfg.Logger()

	reg := prometheus.NewRegistry()
	collector, err := prom.New(reg)
	if err != nil {
		return err
	}
	if cfg.Metrics.Listen != "" {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: prom.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	var (
		spans  *spanCollector
		tracer trace.Tracer = noop.NewTracerProvider().Tracer("meshtopo")
	)
	if cfg.Trace {
		spans = &spanCollector{}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		tracer = tp.Tracer("github.com/hupe1980/meshtopo/cmd/meshtopo")
	}

	opts := []meshtopo.Option{
		meshtopo.WithLogger(logger),
		meshtopo.WithMetricsCollector(collector),
		meshtopo.WithTracer(tracer),
		meshtopo.WithSeed(cfg.Seed),
	}

	var reports []rankReport
	switch cfg.Transport.Kind {
	case "tcp":
		r, err := runTCP(ctx, cfg, parts, ct, mode, logger, opts)
		if err != nil {
			return err
		}
		reports = []rankReport{r}
	default:
		reports, err = testutil.PerRank(ctx, cfg.Ranks, func(ctx context.Context, c *comm.Comm) (rankReport, error) {
			return runRank(ctx, c, parts[c.Rank()], ct, mode, cfg, opts)
		})
		if err != nil {
			return err
		}
	}

	renderReports(w, cfg, ct, reports)
	if spans != nil {
		renderSpans(w, spans.summary())
	}
	return nil
}

func runTCP(ctx context.Context, cfg *Config, parts []testutil.Part, ct cell.Type, mode meshtopo.GhostMode,
	logger *meshtopo.Logger, opts []meshtopo.Option) (rankReport, error) {
	compression, err := tcp.ParseCompression(cfg.Transport.Compression)
	if err != nil {
		return rankReport{}, err
	}
	bandwidth, err := cfg.BandwidthBytes()
	if err != nil {
		return rankReport{}, err
	}
	rank := cfg.Transport.Rank
	t, err := tcp.Dial(ctx, tcp.Config{
		Rank:                 rank,
		Size:                 cfg.Ranks,
		ListenAddr:           cfg.Transport.Peers[rank],
		Compression:          compression,
		BandwidthBytesPerSec: bandwidth,
		Logger:               logger.WithRank(rank).Logger,
	}, cfg.Transport.Peers)
	if err != nil {
		return rankReport{}, err
	}
	c := comm.New(t)
	defer c.Close()

	r, err := runRank(ctx, c, parts[rank], ct, mode, cfg, opts)
	if err != nil {
		return rankReport{}, err
	}
	// Keep the connections up until every rank is done reading.
	if err := c.Barrier(ctx); err != nil {
		return rankReport{}, err
	}
	return r, nil
}

func runRank(ctx context.Context, c *comm.Comm, p testutil.Part, ct cell.Type, mode meshtopo.GhostMode,
	cfg *Config, opts []meshtopo.Option) (rankReport, error) {
	start := time.Now()
	topo, err := meshtopo.CreateTopology(ctx, c, p.Cells, p.OriginalIndex, p.GhostOwners, ct, mode, opts...)
	if err != nil {
		return rankReport{}, err
	}
	r := rankReport{Rank: c.Rank(), Entities: map[int]int32{}}

	tdim := topo.Dim()
	for _, d := range cfg.Entities {
		if _, err := topo.CreateEntities(ctx, d); err != nil {
			return rankReport{}, err
		}
	}
	if cfg.Permutations {
		if err := topo.CreateEntityPermutations(ctx); err != nil {
			return rankReport{}, err
		}
	}
	if err := topo.CreateConnectivity(ctx, tdim-1, tdim); err != nil {
		return rankReport{}, fmt.Errorf("boundary facets: %w", err)
	}
	boundary, err := meshtopo.ComputeBoundaryFacets(topo)
	if err != nil {
		return rankReport{}, err
	}
	for _, b := range boundary {
		if b {
			r.Boundary++
		}
	}

	for d := 1; d < tdim; d++ {
		if im, err := topo.IndexMap(d); err == nil {
			r.Entities[d] = im.SizeLocal()
		}
	}
	vertices, err := topo.IndexMap(0)
	if err != nil {
		return rankReport{}, err
	}
	cells, err := topo.Connectivity(tdim, 0)
	if err != nil {
		return rankReport{}, err
	}
	r.Owned = vertices.SizeLocal()
	r.Ghosts = vertices.NumGhosts()
	r.GlobalVertices = vertices.SizeGlobal()
	r.Cells = cells.NumNodes()
	r.Stats = c.Stats()
	r.Elapsed = time.Since(start)
	return r, nil
}
