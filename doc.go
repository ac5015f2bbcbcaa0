// Package meshtopo builds the distributed topology of a partitioned
// unstructured mesh.
//
// Each rank of a communicator holds a subset of the cells, listed by global
// vertex id, plus a layer of ghost cells owned by other ranks. CreateTopology
// decides which rank owns every vertex, renumbers the vertices so that each
// rank owns a contiguous block of global indices, and tells every rank the
// new index and owner of each vertex it references but does not own.
//
// # Quick Start
//
//	err := comm.Run(ctx, 2, func(ctx context.Context, c *comm.Comm) error {
//	    p := parts[c.Rank()]
//	    topo, err := meshtopo.CreateTopology(ctx, c, p.Cells, p.OriginalIndex, p.GhostOwners,
//	        cell.Triangle, meshtopo.GhostNone)
//	    if err != nil {
//	        return err
//	    }
//	    vertices, _ := topo.IndexMap(0)
//	    fmt.Println(vertices.SizeLocal(), vertices.NumGhosts())
//	    return nil
//	})
//
// Across processes, build the communicator on package comm/tcp instead.
//
// # Ghost Modes
//
//   - GhostNone drops the ghost cells after ownership is decided. Vertices
//     that only appear in ghost cells are not part of the result.
//   - GhostSharedFacet keeps the ghost cells. The cell index map then has
//     ghosts and every vertex of a ghost cell is numbered.
//
// # Entities and Connectivity
//
// Edges, faces and facets are created on demand and cached:
//
//	n, _ := topo.CreateEntities(ctx, 1)        // number of owned edges, -1 if cached
//	_ = topo.CreateConnectivity(ctx, 1, 2)     // facet-cell for triangles
//	_ = topo.CreateEntityPermutations(ctx)
//	boundary, _ := meshtopo.ComputeBoundaryFacets(topo)
//
// Every builder is collective. All ranks must call the same builders in the
// same order.
//
// # Observability
//
// Options configure a structured logger (log/slog), a MetricsCollector and an
// OpenTelemetry tracer. Every construction phase runs inside a span and is
// reported to the collector:
//
//	mc := &meshtopo.BasicMetricsCollector{}
//	topo, err := meshtopo.CreateTopology(ctx, c, cells, orig, owners, ct, mode,
//	    meshtopo.WithLogger(meshtopo.NewJSONLogger(slog.LevelDebug)),
//	    meshtopo.WithMetricsCollector(mc),
//	    meshtopo.WithSeed(42),
//	)
//
// A Prometheus collector lives in package metrics/prom.
//
// # Errors
//
// Input problems are reported with ErrInvalidInput, ErrUnsupportedCellType,
// ErrInvalidGhostMode and *CellVertexCountError. A vertex left without a
// number is reported as *UnresolvedVertexError, which matches
// ErrUnresolvedVertex. Reading data that has not been built yet returns a
// *PreconditionError naming the builder to call.
package meshtopo
