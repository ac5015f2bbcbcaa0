package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo"
	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/testutil"
)

func TestRunRank_Square(t *testing.T) {
	for _, mode := range []meshtopo.GhostMode{meshtopo.GhostNone, meshtopo.GhostSharedFacet} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := &Config{Ranks: 2, Entities: []int{1}, Permutations: true, Mesh: MeshConfig{Kind: "square", N: 2}}
			parts := testutil.Partition(generate(cfg, cell.Triangle), cfg.Ranks, 0)

			reports, err := testutil.PerRank(context.Background(), cfg.Ranks, func(ctx context.Context, c *comm.Comm) (rankReport, error) {
				return runRank(ctx, c, parts[c.Rank()], cell.Triangle, mode, cfg, nil)
			})
			require.NoError(t, err)
			require.Len(t, reports, 2)

			var owned, edges, boundary int64
			for i, r := range reports {
				assert.Equal(t, i, r.Rank)
				assert.Equal(t, int64(9), r.GlobalVertices)
				assert.Positive(t, r.Stats.MessagesSent)
				owned += int64(r.Owned)
				edges += int64(r.Entities[1])
				boundary += int64(r.Boundary)
			}
			assert.Equal(t, int64(9), owned)
			assert.Equal(t, int64(16), edges)
			assert.Equal(t, int64(8), boundary)
		})
	}
}

func TestRunCommand_Local(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--ranks", "3", "--mesh", "cube", "--n", "2", "--entities", "1,2", "--trace"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))

	text := strings.ToLower(out.String())
	assert.Contains(t, text, "tetrahedron mesh, n=2, 3 ranks")
	assert.Contains(t, text, "global vertices: 27")
	assert.Contains(t, text, "dim 2")
	assert.Contains(t, text, "round-a")
	assert.Contains(t, text, "assemble")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cmd := NewRunCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--ranks", "0"})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, ErrInvalidRanks)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "meshtopo dev")
}
