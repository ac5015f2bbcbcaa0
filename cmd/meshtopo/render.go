package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hupe1980/meshtopo/cell"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	return tbl
}

// renderReports prints one row per rank plus a totals footer.
func renderReports(w io.Writer, cfg *Config, ct cell.Type, reports []rankReport) {
	fmt.Fprintf(w, "%s mesh, n=%d, %d ranks, ghost mode %s\n", ct, cfg.Mesh.N, cfg.Ranks, cfg.GhostMode)

	var dims []int
	for _, r := range reports {
		for d := range r.Entities {
			if !slices.Contains(dims, d) {
				dims = append(dims, d)
			}
		}
	}
	slices.Sort(dims)

	header := table.Row{"Rank", "Owned", "Ghosts", "Cells"}
	for _, d := range dims {
		header = append(header, fmt.Sprintf("Dim %d", d))
	}
	header = append(header, "Exterior", "Messages", "Sent", "Time")

	tbl := newTable(w)
	tbl.AppendHeader(header)

	var (
		owned, ghosts, cells, boundary int64
		messages, sent                 int64
		entities                       = make(map[int]int64)
		global                         int64
	)
	for _, r := range reports {
		row := table.Row{r.Rank, r.Owned, r.Ghosts, r.Cells}
		for _, d := range dims {
			row = append(row, r.Entities[d])
			entities[d] += int64(r.Entities[d])
		}
		row = append(row, r.Boundary, r.Stats.MessagesSent, humanize.Bytes(uint64(r.Stats.BytesSent)), r.Elapsed.Round(time.Microsecond))
		tbl.AppendRow(row)

		owned += int64(r.Owned)
		ghosts += int64(r.Ghosts)
		cells += int64(r.Cells)
		boundary += int64(r.Boundary)
		messages += r.Stats.MessagesSent
		sent += r.Stats.BytesSent
		global = r.GlobalVertices
	}

	footer := table.Row{"Total", owned, ghosts, cells}
	for _, d := range dims {
		footer = append(footer, entities[d])
	}
	footer = append(footer, boundary, messages, humanize.Bytes(uint64(sent)), "")
	tbl.AppendFooter(footer)
	tbl.Render()

	if len(reports) == cfg.Ranks {
		fmt.Fprintf(w, "global vertices: %s\n", humanize.Comma(global))
	}
}

// renderSpans prints the per-phase span timings.
func renderSpans(w io.Writer, phases []phaseTiming) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Phase", "Spans", "Total", "Max"})
	for _, p := range phases {
		tbl.AppendRow(table.Row{p.Name, p.Spans, p.Total.Round(time.Microsecond), p.Max.Round(time.Microsecond)})
	}
	tbl.Render()
}
