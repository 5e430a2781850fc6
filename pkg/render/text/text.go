// Package text draws a family-tree grid with box-drawing characters.
//
// Every grid cell becomes a fixed-width slot on one terminal line. Person
// cells show the person's name, connector cells the bars of their link
// groups. When the grid's bands are supplied, an extra line between two
// layers joins every parent bar with the sibling bar of its children.
//
//	out := text.Render(g, text.Options{Labels: render.LabelsOf(s)})
package text

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/render"
)

// DefaultCellWidth is the slot width used when Options.CellWidth is zero.
const DefaultCellWidth = 12

// Options configures text rendering.
type Options struct {
	// CellWidth is the number of columns per cell; at least 3.
	CellWidth int
	// Labels names the persons. Unlabelled persons show a short id.
	Labels render.Labels
	// Bands from grid.Bands enable the lines between layers.
	Bands [][]grid.Range
	// Color styles each bar with its connection colour.
	Color bool
	// Compact skips connector lines without any marker.
	Compact bool
}

const (
	left = 1 << iota
	right
	up
	down
)

var glyphs = map[int]string{
	0:                        " ",
	left:                     "─",
	right:                    "─",
	left | right:             "─",
	up:                       "│",
	down:                     "│",
	up | down:                "│",
	right | down:             "┌",
	left | down:              "┐",
	left | right | down:      "┬",
	right | up:               "└",
	left | up:                "┘",
	left | right | up:        "┴",
	up | down | right:        "├",
	up | down | left:         "┤",
	left | right | up | down: "┼",
}

// stroke is what one slot of a connector line draws.
type stroke struct {
	mask  int
	conn  int
	inked bool
}

func (s *stroke) add(mask, conn int) {
	if !s.inked {
		s.conn, s.inked = conn, true
	}
	s.mask |= mask
}

// Render draws g as lines of text.
func Render(g *grid.Grid, opts Options) string {
	w := opts.CellWidth
	if w == 0 {
		w = DefaultCellWidth
	}
	w = max(w, 3)

	lines := strokeLines(g, opts.Bands)
	var b strings.Builder
	for i, row := range g.Rows {
		if g.Kind(i) == grid.PersonRow {
			writeLine(&b, personLine(row, w, opts))
		} else {
			writeStrokes(&b, lines[i], w, opts)
		}
		if extra, ok := lines[interLayerKey(i)]; ok {
			writeStrokes(&b, extra, w, opts)
		}
	}
	return b.String()
}

// interLayerKey indexes the line drawn below grid row i.
func interLayerKey(i int) int { return -(i + 1) }

func strokeLines(g *grid.Grid, bands [][]grid.Range) map[int][]stroke {
	lines := make(map[int][]stroke)
	for i := range g.Rows {
		if g.Kind(i) == grid.PersonRow {
			continue
		}
		vertical := down
		if g.Kind(i) == grid.ParentRow {
			vertical = up
		}
		line := make([]stroke, g.Width)
		for c := range g.Width {
			for _, seg := range render.Segments(g, i, c) {
				mask := 0
				if seg.Left {
					mask |= left
				}
				if seg.Right {
					mask |= right
				}
				if seg.Vertical {
					mask |= vertical
				}
				line[c].add(mask, seg.Connection)
			}
		}
		lines[i] = line
	}

	if len(bands) != len(g.Rows) {
		return lines
	}
	for _, d := range render.Drops(bands) {
		lines[d.ParentRow][d.ParentCol].add(down, d.Connection)
		lines[d.ParentRow+1][d.SiblingCol].add(up, d.Connection)

		key := interLayerKey(d.ParentRow)
		if _, ok := lines[key]; !ok {
			lines[key] = make([]stroke, g.Width)
		}
		between := lines[key]
		lo, hi := min(d.ParentCol, d.SiblingCol), max(d.ParentCol, d.SiblingCol)
		for c := lo; c <= hi; c++ {
			mask := 0
			if c > lo {
				mask |= left
			}
			if c < hi {
				mask |= right
			}
			if c == d.ParentCol {
				mask |= up
			}
			if c == d.SiblingCol {
				mask |= down
			}
			between[c].add(mask, d.Connection)
		}
	}
	return lines
}

func writeStrokes(b *strings.Builder, line []stroke, w int, opts Options) {
	if opts.Compact && !anyInked(line) {
		return
	}
	var sb strings.Builder
	for _, s := range line {
		slot := slotString(s.mask, w)
		if opts.Color && s.inked {
			hex := render.ConnectionColor(s.conn).Hex()
			slot = lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(slot)
		}
		sb.WriteString(slot)
	}
	writeLine(b, sb.String())
}

func slotString(mask, w int) string {
	leftHalf := (w - 1) / 2
	rightHalf := w - 1 - leftHalf
	fill := func(on bool, n int) string {
		if on {
			return strings.Repeat("─", n)
		}
		return strings.Repeat(" ", n)
	}
	return fill(mask&left != 0, leftHalf) + glyphs[mask] + fill(mask&right != 0, rightHalf)
}

func personLine(row []grid.Cell, w int, opts Options) string {
	name := lipgloss.NewStyle().Bold(true)
	var sb strings.Builder
	for _, c := range row {
		slot := grid.Match(c,
			func(p grid.PersonCell) string {
				label := lipgloss.PlaceHorizontal(w, lipgloss.Center, truncate(opts.Labels.Label(p.ID), w-1))
				if opts.Color {
					return name.Render(label)
				}
				return label
			},
			func(grid.ConnectorCell) string { return strings.Repeat(" ", w) },
		)
		sb.WriteString(slot)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func anyInked(line []stroke) bool {
	for _, s := range line {
		if s.inked {
			return true
		}
	}
	return false
}

func writeLine(b *strings.Builder, s string) {
	b.WriteString(strings.TrimRight(s, " "))
	b.WriteByte('\n')
}
