package grid

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/familygrid/pkg/tree"
)

// Cell type tags used on the wire.
const (
	typePerson    = "person"
	typeConnector = "connector"
)

// gridJSON is the wire form of a [Grid].
type gridJSON struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Cells   [][]cellJSON `json:"cells"`
}

// cellJSON is the tagged wire form of a [Cell].
type cellJSON struct {
	Type        string        `json:"type"`
	ID          tree.PersonID `json:"id,omitempty"`
	Orientation *Orientation  `json:"orientation,omitempty"`
	Total       *int          `json:"total,omitempty"`
	Markers     []Marker      `json:"markers,omitempty"`
}

func toCellJSON(c Cell) cellJSON {
	return Match(c,
		func(p PersonCell) cellJSON {
			return cellJSON{Type: typePerson, ID: p.ID}
		},
		func(cc ConnectorCell) cellJSON {
			o, total := cc.Orientation, cc.Total
			markers := cc.Markers
			if markers == nil {
				markers = []Marker{}
			}
			return cellJSON{Type: typeConnector, Orientation: &o, Total: &total, Markers: markers}
		})
}

func (c cellJSON) toCell() (Cell, error) {
	switch c.Type {
	case typePerson:
		if c.ID == "" {
			return nil, fmt.Errorf("person cell without id")
		}
		return PersonCell{ID: c.ID}, nil
	case typeConnector:
		cc := ConnectorCell{Markers: c.Markers}
		if c.Orientation != nil {
			cc.Orientation = *c.Orientation
		}
		if c.Total != nil {
			cc.Total = *c.Total
		}
		if len(cc.Markers) == 0 {
			cc.Markers = nil
		}
		return cc, nil
	}
	return nil, fmt.Errorf("unknown cell type %q", c.Type)
}

// MarshalJSON encodes the grid as {"rows", "columns", "cells"} with every
// cell tagged by its variant.
func (g *Grid) MarshalJSON() ([]byte, error) {
	out := gridJSON{Rows: len(g.Rows), Columns: g.Width, Cells: make([][]cellJSON, len(g.Rows))}
	for i, row := range g.Rows {
		out.Cells[i] = make([]cellJSON, len(row))
		for j, c := range row {
			out.Cells[i][j] = toCellJSON(c)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var in gridJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Cells) != in.Rows {
		return fmt.Errorf("grid: %d rows declared, %d present", in.Rows, len(in.Cells))
	}
	rows := make([][]Cell, len(in.Cells))
	for i, row := range in.Cells {
		if len(row) != in.Columns {
			return fmt.Errorf("grid: row %d has %d cells, want %d", i, len(row), in.Columns)
		}
		rows[i] = make([]Cell, len(row))
		for j, c := range row {
			cell, err := c.toCell()
			if err != nil {
				return fmt.Errorf("grid: cell %d,%d: %w", i, j, err)
			}
			rows[i][j] = cell
		}
	}
	g.Width = in.Columns
	g.Rows = rows
	return nil
}
