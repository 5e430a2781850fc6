package grid

import (
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// BuildRow turns a layer into a person row of exactly width cells: the
// layer's persons in order, followed by empty connector cells. It fails with
// CONFIGURATION_ERROR when the layer is longer than width.
func BuildRow(layer []tree.PersonID, width int) ([]Cell, error) {
	if width < len(layer) {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"row width %d is smaller than layer length %d", width, len(layer))
	}
	row := make([]Cell, width)
	for i, pid := range layer {
		row[i] = PersonCell{ID: pid}
	}
	for i := len(layer); i < width; i++ {
		row[i] = ConnectorCell{}
	}
	return row, nil
}

// columns maps every person in a row to its column.
func columns(row []Cell) map[tree.PersonID]int {
	cols := make(map[tree.PersonID]int, len(row))
	for i, c := range row {
		if p, ok := c.(PersonCell); ok {
			cols[p.ID] = i
		}
	}
	return cols
}
