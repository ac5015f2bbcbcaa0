// Package testutil provides testing utilities for meshtopo.
//
// This package is intended for use in tests, examples and the CLI only.
// It provides deterministic mesh generators, a seeded partitioner that
// produces per-rank inputs with vertex-sharing ghost layers, and a helper to
// run a function on every rank of an in-process world.
//
// # Meshes
//
//	m := testutil.UnitSquare(8, cell.Triangle)
//	parts := testutil.Partition(m, 4, 42)
//
// # Running ranks
//
//	results, err := testutil.PerRank(ctx, 4, func(ctx context.Context, c *comm.Comm) (int32, error) {
//	    p := parts[c.Rank()]
//	    ...
//	})
package testutil
