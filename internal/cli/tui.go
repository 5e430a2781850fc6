package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/render"
	"github.com/matzehuels/familygrid/pkg/render/text"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// View styles
var (
	viewPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	viewDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// GridViewModel - Interactive grid browser
// =============================================================================

// GridViewModel is the bubbletea model for browsing a laid out tree. The
// cursor moves between persons; the panel shows the selected person.
type GridViewModel struct {
	Snapshot  *tree.Snapshot
	Grid      *grid.Grid
	Bands     [][]grid.Range
	CellWidth int

	// Rows holds the persons of each generation in column order.
	Rows   [][]tree.PersonID
	Layer  int
	Index  int
	labels render.Labels
}

// NewGridViewModel creates a grid browser positioned on the first person.
func NewGridViewModel(s *tree.Snapshot, g *grid.Grid, bands [][]grid.Range, cellWidth int) GridViewModel {
	pos := g.Positions()
	rows := make([][]tree.PersonID, g.LayerCount())
	for pid, p := range pos {
		rows[p.Row/3] = append(rows[p.Row/3], pid)
	}
	for _, row := range rows {
		slices.SortFunc(row, func(a, b tree.PersonID) int { return cmp.Compare(pos[a].Col, pos[b].Col) })
	}
	return GridViewModel{
		Snapshot:  s,
		Grid:      g,
		Bands:     bands,
		CellWidth: cellWidth,
		Rows:      rows,
		labels:    render.LabelsOf(s),
	}
}

// Selected returns the person under the cursor.
func (m GridViewModel) Selected() (tree.PersonID, bool) {
	if m.Layer >= len(m.Rows) || m.Index >= len(m.Rows[m.Layer]) {
		return "", false
	}
	return m.Rows[m.Layer][m.Index], true
}

func (m GridViewModel) Init() tea.Cmd {
	return nil
}

func (m GridViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		if m.Index > 0 {
			m.Index--
		}
	case "right", "l":
		if m.Layer < len(m.Rows) && m.Index < len(m.Rows[m.Layer])-1 {
			m.Index++
		}
	case "up", "k":
		m = m.moveLayer(-1)
	case "down", "j":
		m = m.moveLayer(1)
	}
	return m, nil
}

// moveLayer moves the cursor to the nearest person by column in the next
// non-empty generation in direction dir.
func (m GridViewModel) moveLayer(dir int) GridViewModel {
	pid, ok := m.Selected()
	if !ok {
		return m
	}
	pos := m.Grid.Positions()
	col := pos[pid].Col
	for layer := m.Layer + dir; layer >= 0 && layer < len(m.Rows); layer += dir {
		if len(m.Rows[layer]) == 0 {
			continue
		}
		best := 0
		for i, other := range m.Rows[layer] {
			if abs(pos[other].Col-col) < abs(pos[m.Rows[layer][best]].Col-col) {
				best = i
			}
		}
		m.Layer, m.Index = layer, best
		return m
	}
	return m
}

func (m GridViewModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Family Grid"))
	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("←/→/↑/↓ move  q quit"))
	b.WriteString("\n\n")

	pid, ok := m.Selected()
	labels := make(render.Labels, len(m.labels)+1)
	for k, v := range m.labels {
		labels[k] = v
	}
	if ok {
		labels[pid] = "▸" + m.labels.Label(pid)
	}
	b.WriteString(text.Render(m.Grid, text.Options{
		CellWidth: m.CellWidth,
		Labels:    labels,
		Bands:     m.Bands,
		Color:     true,
	}))

	if ok {
		b.WriteString("\n")
		b.WriteString(viewPanelStyle.Render(m.personPanel(pid)))
		b.WriteString("\n")
		b.WriteString(viewDimStyle.Render(fmt.Sprintf("  generation %d/%d", m.Layer+1, len(m.Rows))))
	}
	return b.String()
}

// personPanel describes pid: its info fields and the relationships it
// belongs to.
func (m GridViewModel) personPanel(pid tree.PersonID) string {
	p, _ := m.Snapshot.Person(pid)

	var b strings.Builder
	b.WriteString(styleHighlight.Render(p.Name()))
	if span := p.Info.Lifespan(); span != "" {
		b.WriteString("  " + viewDimStyle.Render(span))
	}
	b.WriteString("\n" + viewDimStyle.Render(string(pid)) + "\n")

	if len(p.Info) > 0 {
		rows := make([][]string, len(p.Info))
		for i, f := range p.Info {
			rows[i] = []string{f.Key, f.Value}
		}
		b.WriteString(table.New().
			Border(lipgloss.HiddenBorder()).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if col == 0 {
					return styleDim
				}
				return styleValue
			}).
			Render())
		b.WriteString("\n")
	}

	if rel, ok := m.Snapshot.ChildOf(pid); ok {
		b.WriteString(viewDimStyle.Render("child of ") + m.memberNames(rel.ParentIDs()) + "\n")
	}
	for _, rel := range m.Snapshot.ParentOf(pid) {
		var partners []tree.PersonID
		for _, other := range rel.ParentIDs() {
			if other != pid {
				partners = append(partners, other)
			}
		}
		line := viewDimStyle.Render("family ")
		if len(partners) > 0 {
			line += m.memberNames(partners) + " "
		}
		line += styleNumber.Render(children(len(rel.Children)))
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m GridViewModel) memberNames(pids []tree.PersonID) string {
	if len(pids) == 0 {
		return viewDimStyle.Render("unknown parents")
	}
	names := make([]string, len(pids))
	for i, pid := range pids {
		names[i] = m.labels.Label(pid)
	}
	return styleValue.Render(strings.Join(names, " & "))
}

func children(n int) string {
	if n == 1 {
		return "1 child"
	}
	return fmt.Sprintf("%d children", n)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
