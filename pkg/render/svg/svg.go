// Package svg draws a family-tree grid as a scalable vector image.
//
// Person cells become labelled boxes. Every marker of a connector cell
// becomes a line piece at its own height inside the cell, so the bars of
// different link groups in one row never overlap. Each group is stroked in
// its connection colour. With the grid's bands, an elbow line joins every
// parent bar with the sibling bar of the same relationship.
//
//	data := svg.Render(g, svg.WithLabels(render.LabelsOf(s)), svg.WithBands(bands))
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/render"
)

// DefaultCellSize is the width of one grid column in user units.
const DefaultCellSize = 80.0

// Theme selects background and text colours.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ValidThemes lists the supported themes.
var ValidThemes = map[Theme]bool{ThemeLight: true, ThemeDark: true}

type palette struct {
	background, box, border, text string
}

var palettes = map[Theme]palette{
	ThemeLight: {background: "#ffffff", box: "#f4f4f5", border: "#52525b", text: "#18181b"},
	ThemeDark:  {background: "#18181b", box: "#27272a", border: "#a1a1aa", text: "#fafafa"},
}

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	cellSize float64
	labels   render.Labels
	bands    [][]grid.Range
	theme    Theme
}

func WithCellSize(size float64) Option  { return func(r *renderer) { r.cellSize = size } }
func WithLabels(l render.Labels) Option { return func(r *renderer) { r.labels = l } }
func WithBands(b [][]grid.Range) Option { return func(r *renderer) { r.bands = b } }
func WithTheme(t Theme) Option          { return func(r *renderer) { r.theme = t } }

func newRenderer(opts ...Option) renderer {
	r := renderer{cellSize: DefaultCellSize, theme: ThemeLight}
	for _, opt := range opts {
		opt(&r)
	}
	if r.cellSize <= 0 {
		r.cellSize = DefaultCellSize
	}
	if !ValidThemes[r.theme] {
		r.theme = ThemeLight
	}
	return r
}

// Render draws g and returns the SVG document.
func Render(g *grid.Grid, opts ...Option) []byte {
	r := newRenderer(opts...)
	rows := r.rowBoxes(g)

	width := float64(g.Width) * r.cellSize
	height := 0.0
	if n := len(rows); n > 0 {
		height = rows[n-1].top + rows[n-1].height
	}
	pal := palettes[r.theme]

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", pal.background)

	if len(r.bands) == len(g.Rows) {
		for _, d := range render.Drops(r.bands) {
			r.renderDrop(&buf, g, rows, d)
		}
	}
	for i, row := range g.Rows {
		for c, cell := range row {
			switch cell := cell.(type) {
			case grid.PersonCell:
				r.renderPerson(&buf, pal, rows[i], c, cell)
			case grid.ConnectorCell:
				r.renderConnector(&buf, g, rows[i], i, c, cell)
			}
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

type rowBox struct {
	top, height float64
}

// rowBoxes stacks the rows: person rows are one cell high, connector rows
// half a cell, with a half-cell gutter between layers for the drops.
func (r *renderer) rowBoxes(g *grid.Grid) []rowBox {
	boxes := make([]rowBox, len(g.Rows))
	y := 0.0
	for i := range g.Rows {
		if i > 0 && g.Kind(i) == grid.SiblingRow {
			y += r.cellSize / 2
		}
		h := r.cellSize / 2
		if g.Kind(i) == grid.PersonRow {
			h = r.cellSize
		}
		boxes[i] = rowBox{top: y, height: h}
		y += h
	}
	return boxes
}

// barY is the height of connection conn inside a connector cell.
func barY(box rowBox, conn, total int) float64 {
	return box.top + box.height*float64(conn+1)/float64(total+1)
}

func (r *renderer) centerX(col int) float64 {
	return float64(col)*r.cellSize + r.cellSize/2
}

func (r *renderer) renderPerson(buf *bytes.Buffer, pal palette, box rowBox, col int, p grid.PersonCell) {
	pad := r.cellSize * 0.08
	x := float64(col)*r.cellSize + pad
	w := r.cellSize - 2*pad
	fmt.Fprintf(buf, `  <rect id="person-%s" class="person" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
		escapeXML(string(p.ID)), x, box.top+pad, w, box.height-2*pad, pad, pal.box, pal.border)

	label := r.labels.Label(p.ID)
	fontSize := max(8, min(16, w/(float64(max(1, len([]rune(label))))*0.6)))
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="%.1f" fill="%s">%s</text>`+"\n",
		r.centerX(col), box.top+box.height/2, fontSize, pal.text, escapeXML(label))
}

func (r *renderer) renderConnector(buf *bytes.Buffer, g *grid.Grid, box rowBox, row, col int, cell grid.ConnectorCell) {
	if cell.Empty() {
		return
	}
	x0 := float64(col) * r.cellSize
	cx := r.centerX(col)
	x1 := x0 + r.cellSize
	for _, seg := range render.Segments(g, row, col) {
		y := barY(box, seg.Connection, cell.Total)
		color := render.ConnectionColor(seg.Connection).CSS()
		if seg.Crossing {
			r.renderBridge(buf, cx, y)
		}
		if seg.Left {
			line(buf, x0, y, cx, y, color)
		}
		if seg.Right {
			line(buf, cx, y, x1, y, color)
		}
		if seg.Vertical {
			if cell.Orientation == grid.Down {
				line(buf, cx, y, cx, box.top+box.height, color)
			} else {
				line(buf, cx, box.top, cx, y, color)
			}
		}
	}
}

// renderBridge punches a gap into bars drawn earlier so a crossing line
// reads as passing over them.
func (r *renderer) renderBridge(buf *bytes.Buffer, cx, y float64) {
	gap := r.cellSize * 0.06
	fmt.Fprintf(buf, `  <circle class="crossing" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
		cx, y, gap, palettes[r.theme].background)
}

func (r *renderer) renderDrop(buf *bytes.Buffer, g *grid.Grid, rows []rowBox, d render.Drop) {
	siblingRow := d.ParentRow + 1
	parent, ok1 := g.Cell(d.ParentRow, d.ParentCol).(grid.ConnectorCell)
	sibling, ok2 := g.Cell(siblingRow, d.SiblingCol).(grid.ConnectorCell)
	if !ok1 || !ok2 {
		return
	}

	px, sx := r.centerX(d.ParentCol), r.centerX(d.SiblingCol)
	py := barY(rows[d.ParentRow], d.Connection, parent.Total)
	sy := barY(rows[siblingRow], d.SiblingConnection, sibling.Total)
	midY := rows[siblingRow].top - r.cellSize/4

	fmt.Fprintf(buf, `  <polyline class="drop" data-relationship="%s" points="%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		escapeXML(string(d.Relationship)), px, py, px, midY, sx, midY, sx, sy,
		render.ConnectionColor(d.Connection).CSS())
}

func line(buf *bytes.Buffer, x1, y1, x2, y2 float64, color string) {
	fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2" stroke-linecap="round"/>`+"\n",
		x1, y1, x2, y2, color)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
