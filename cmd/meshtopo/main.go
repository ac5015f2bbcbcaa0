// Package main provides the meshtopo command, which partitions a generated
// mesh over a set of ranks and builds its distributed topology.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "meshtopo",
		Short: "Distributed mesh topology construction",
		Long: `meshtopo builds the distributed topology of a partitioned mesh:
globally consistent vertex ownership and numbering, ghost layers and
derived entities such as edges and facets.

Commands:
  run       Build the topology of a generated mesh
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewRunCommand())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meshtopo %s (commit: %s)\n", version, commit)
		},
	}
}
