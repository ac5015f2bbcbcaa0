package meshtopo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
	"github.com/hupe1980/meshtopo/internal/directory"
	"github.com/hupe1980/meshtopo/internal/fabric"
	"github.com/hupe1980/meshtopo/internal/ownership"
	"github.com/hupe1980/meshtopo/internal/phase"
	"github.com/hupe1980/meshtopo/internal/renumber"
)

// CreateTopology builds the distributed topology of a partitioned mesh. It is
// collective: every rank of c calls it with its own part.
//
// cells lists the vertices of every cell by global vertex id, the cells owned
// by this rank first, followed by len(ghostOwners) ghost cells owned by
// ghostOwners. originalCellIndex holds the pre-partition index of every cell.
// The ghost layer must contain every off-rank cell that shares a vertex with
// a local cell.
//
// Vertices are renumbered so that each rank owns a contiguous block of global
// indices. The returned topology holds the cell-vertex connectivity and the
// vertex and cell index maps. On error no topology is returned.
func CreateTopology(ctx context.Context, c *comm.Comm, cells *graph.AdjacencyList[int64], originalCellIndex []int64,
	ghostOwners []int, cellType cell.Type, mode GhostMode, optFns ...Option) (*Topology, error) {
	o := applyOptions(optFns)
	b := &builder{
		c:         c,
		cells:     cells,
		original:  originalCellIndex,
		owners:    ghostOwners,
		cellType:  cellType,
		mode:      mode,
		opts:      o,
		numLocal:  cells.NumNodes() - len(ghostOwners),
		keepGhost: mode == GhostSharedFacet,
	}
	logger := o.logger.WithRank(c.Rank())
	runner := phase.NewRunner(c.Rank(), logger.Logger, o.tracer, o.metricsCollector)

	start := time.Now()
	t, err := b.run(ctx, runner)
	if err != nil {
		logger.LogTopology(ctx, 0, 0, 0, time.Since(start), err)
		return nil, err
	}
	vmap := t.maps[0]
	cellCount := t.conn[connKey{t.Dim(), 0}].NumNodes()
	logger.LogTopology(ctx, int(vmap.SizeLocal()), int(vmap.NumGhosts()), cellCount, time.Since(start), nil)
	o.metricsCollector.RecordTopology(int(vmap.SizeLocal()), int(vmap.NumGhosts()), cellCount)
	return t, nil
}

// builder carries the state shared between the construction phases.
type builder struct {
	c         *comm.Comm
	cells     *graph.AdjacencyList[int64]
	original  []int64
	owners    []int
	cellType  cell.Type
	mode      GhostMode
	opts      options
	numLocal  int
	keepGhost bool

	cellMap   *indexmap.IndexMap
	table     *ownership.Table
	ambiguous []int64
	sharing   *directory.Sharing
	numbering *renumber.Numbering
	fabric    *fabric.Fabric
	local     *graph.AdjacencyList[int32]
	vertexMap *indexmap.IndexMap
	topology  *Topology
}

func (b *builder) run(ctx context.Context, r *phase.Runner) (*Topology, error) {
	defer func() {
		if b.fabric != nil {
			_ = b.fabric.Close()
		}
	}()

	steps := []struct {
		name phase.Name
		fn   func(context.Context) error
	}{
		{phase.Validate, b.validate},
		{phase.CellIndexMap, b.buildCellIndexMap},
		{phase.Classify, b.classify},
		{phase.Directory, b.resolveSharing},
		{phase.Claim, b.claim},
		{phase.NumberOwned, b.numberOwned},
		{phase.Offset, b.offset},
		{phase.Fabric, b.buildFabric},
		{phase.RoundA, b.roundA},
		{phase.RoundB, b.roundB},
		{phase.FabricClose, b.closeFabric},
		{phase.Translate, b.translate},
		{phase.VertexIndexMap, b.buildVertexIndexMap},
		{phase.Assemble, b.assemble},
	}
	for _, s := range steps {
		if err := r.Run(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}
	return b.topology, nil
}

func (b *builder) validate(context.Context) error {
	if b.cellType.Dim() < 1 || b.cellType.NumVertices() == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedCellType, b.cellType)
	}
	if !b.mode.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidGhostMode, b.mode)
	}
	if b.numLocal < 0 {
		return fmt.Errorf("%w: %d ghost owners for %d cells", ErrInvalidInput, len(b.owners), b.cells.NumNodes())
	}
	if len(b.original) != b.cells.NumNodes() {
		return fmt.Errorf("%w: %d original cell indices for %d cells", ErrInvalidInput, len(b.original), b.cells.NumNodes())
	}
	for i, p := range b.owners {
		if p < 0 || p >= b.c.Size() || p == b.c.Rank() {
			return fmt.Errorf("%w: ghost cell %d has owner %d", ErrInvalidInput, b.numLocal+i, p)
		}
	}
	nv := b.cellType.NumVertices()
	for i := range b.cells.NumNodes() {
		if n := b.cells.NumLinks(i); n != nv {
			return &CellVertexCountError{Cell: i, CellType: b.cellType, Expected: nv, Actual: n}
		}
	}
	return nil
}

func (b *builder) buildCellIndexMap(ctx context.Context) error {
	var (
		ghosts []int64
		owners []int
	)
	if b.keepGhost {
		var err error
		ghosts, _, err = indexmap.ComputeGhostIndices(ctx, b.c, b.original, b.owners)
		if err != nil {
			return err
		}
		owners = b.owners
	}
	m, err := indexmap.New(ctx, b.c, int32(b.numLocal), ghosts, owners)
	if err != nil {
		return err
	}
	b.cellMap = m
	return nil
}

func (b *builder) classify(context.Context) error {
	table, ambiguous, err := ownership.Classify(b.cells, b.numLocal, b.opts.parallelism)
	if err != nil {
		return err
	}
	b.table, b.ambiguous = table, ambiguous
	return nil
}

func (b *builder) resolveSharing(ctx context.Context) error {
	s, err := directory.SharingRanks(ctx, b.c, b.ambiguous, b.opts.seed)
	if err != nil {
		return err
	}
	b.sharing = s
	return nil
}

func (b *builder) claim(context.Context) error {
	b.table.Claim(b.ambiguous, b.c.Rank(), b.sharing.Owner)
	return nil
}

func (b *builder) numberOwned(context.Context) error {
	b.numbering = &renumber.Numbering{
		Rank:     b.c.Rank(),
		NumOwned: renumber.NumberOwned(b.cells, b.table),
	}
	return nil
}

func (b *builder) offset(ctx context.Context) error {
	off, err := b.c.ExclusiveScan(ctx, int64(b.numbering.NumOwned))
	if err != nil {
		return err
	}
	b.numbering.Offset = off
	return nil
}

func (b *builder) buildFabric(context.Context) error {
	var extra []int
	if b.keepGhost {
		extra = append(slices.Clone(b.cellMap.Forward()), b.cellMap.Backward()...)
	}
	f, err := fabric.New(b.c, b.sharing, extra...)
	if err != nil {
		return err
	}
	b.fabric = f
	return nil
}

func (b *builder) roundA(ctx context.Context) error {
	got, err := b.fabric.SendOwnedNumbering(ctx, b.ambiguous, b.sharing, func(id int64) (int64, bool) {
		return b.numbering.Global(b.table, id)
	})
	if err != nil {
		return err
	}
	b.numbering.AddGhosts(b.table, got)
	return nil
}

// roundB forwards the numbers of the vertices of every cell that other ranks
// hold as a ghost. It exchanges nothing when ghost cells are discarded.
func (b *builder) roundB(ctx context.Context) error {
	if !b.keepGhost {
		return nil
	}
	fwd := b.cellMap.Forward()
	scatter := b.cellMap.ScatterFwdIndices()
	targets := make(map[int64][]int)
	for i, p := range fwd {
		for _, ci := range scatter.Links(i) {
			for _, v := range b.cells.Links(int(ci)) {
				targets[v] = append(targets[v], p)
			}
		}
	}
	got, err := b.fabric.ForwardGhostNumbering(ctx, targets, func(id int64) (int64, int, bool) {
		return b.numbering.Lookup(b.table, id)
	})
	if err != nil {
		return err
	}
	b.numbering.AddGhosts(b.table, got)
	return nil
}

func (b *builder) closeFabric(context.Context) error {
	err := b.fabric.Close()
	b.fabric = nil
	return err
}

func (b *builder) translate(context.Context) error {
	local, err := renumber.Translate(b.c.Rank(), b.cells, b.numLocal, b.keepGhost, b.table)
	if err != nil {
		return err
	}
	b.local = local
	return nil
}

func (b *builder) buildVertexIndexMap(ctx context.Context) error {
	m, err := indexmap.New(ctx, b.c, b.numbering.NumOwned, b.numbering.Ghosts, b.numbering.GhostOwners)
	if err != nil {
		return err
	}
	b.vertexMap = m
	return nil
}

func (b *builder) assemble(context.Context) error {
	t := newTopology(b.c, b.cellType, b.mode, b.opts)
	tdim := b.cellType.Dim()
	t.conn[connKey{tdim, 0}] = b.local
	t.conn[connKey{0, 0}] = graph.Identity[int32](int(b.vertexMap.Size()))
	t.maps[0] = b.vertexMap
	t.maps[tdim] = b.cellMap
	t.originalCells = slices.Clone(b.original[:b.local.NumNodes()])
	b.topology = t
	return nil
}
