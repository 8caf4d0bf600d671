// Package locator resolves metric values from a dataset by label rather
// than by fixed coordinates.
//
// Only FindLabeledBlock can fail; every other lookup reports a miss through
// its boolean result and an empty cell.
package locator

import (
	"strings"

	"github.com/okian/recapdeck/internal/domain/dataset"
)

// Entry is one label/value pair read from a labeled block.
type Entry struct {
	Label string
	Value dataset.Cell
}

// Block is the ordered content of a labeled block.
type Block []Entry

// Map returns the block keyed by label. The first label wins on repeats.
func (b Block) Map() map[string]dataset.Cell {
	m := make(map[string]dataset.Cell, len(b))
	for _, e := range b {
		if _, ok := m[e.Label]; !ok {
			m[e.Label] = e.Value
		}
	}
	return m
}

// Get returns the value whose label normalizes to label.
func (b Block) Get(label string) (dataset.Cell, bool) {
	want := dataset.Normalize(label)
	for _, e := range b {
		if dataset.Normalize(e.Label) == want {
			return e.Value, true
		}
	}
	return dataset.Cell{}, false
}

// FindLabeledBlock finds the first column containing anchor and reads the
// next n rows of that column as labels, with values from the column to its
// right. Rows past the end of the table read as empty.
func FindLabeledBlock(ds *dataset.Dataset, anchor string, n int) (Block, error) {
	ix := ds.Index()
	for col := 0; col < ds.NumColumns(); col++ {
		row, ok := ix.Row(col, anchor)
		if !ok {
			continue
		}
		block := make(Block, 0, n)
		for offset := 1; offset <= n; offset++ {
			label := ds.Cell(row+offset, col)
			block = append(block, Entry{
				Label: strings.TrimSpace(label.String()),
				Value: ds.Cell(row+offset, col+1),
			})
		}
		return block, nil
	}
	return nil, &NotFoundError{Anchor: anchor, Dataset: ds.Name()}
}

// FindRowValue scans column for label and returns the cell of valueColumn
// on the first matching row.
func FindRowValue(ds *dataset.Dataset, column, label, valueColumn string) (dataset.Cell, bool) {
	labelIdx, ok := ds.ColumnIndex(column)
	if !ok {
		return dataset.Cell{}, false
	}
	valueIdx, ok := ds.ColumnIndex(valueColumn)
	if !ok {
		return dataset.Cell{}, false
	}
	return FindRowValueAt(ds, labelIdx, label, valueIdx)
}

// FindRowValueAt is FindRowValue with column positions.
func FindRowValueAt(ds *dataset.Dataset, labelCol int, label string, valueCol int) (dataset.Cell, bool) {
	if valueCol < 0 || valueCol >= ds.NumColumns() {
		return dataset.Cell{}, false
	}
	row, ok := ds.Index().Row(labelCol, label)
	if !ok {
		return dataset.Cell{}, false
	}
	return ds.Cell(row, valueCol), true
}

// FindAdjacent returns the cell right of the first occurrence of label,
// scanning columns in order.
func FindAdjacent(ds *dataset.Dataset, label string) (dataset.Cell, bool) {
	p, ok := ds.Index().First(label)
	if !ok || p.Col+1 >= ds.NumColumns() {
		return dataset.Cell{}, false
	}
	return ds.Cell(p.Row, p.Col+1), true
}

// FindAdjacentBelow returns the cell right of label, searching only the
// column of anchor from the anchor's row down. Labels that also occur as
// plain values elsewhere (quartiles such as "0.5" or "1") resolve inside
// the anchored block.
func FindAdjacentBelow(ds *dataset.Dataset, anchor, label string) (dataset.Cell, bool) {
	p, ok := ds.Index().First(anchor)
	if !ok || p.Col+1 >= ds.NumColumns() {
		return dataset.Cell{}, false
	}
	want := dataset.Normalize(label)
	for row := p.Row; row < ds.NumRows(); row++ {
		if ds.Cell(row, p.Col).Normalized() == want {
			return ds.Cell(row, p.Col+1), true
		}
	}
	return dataset.Cell{}, false
}

// FindFixedPosition reads one cell by row index and column id.
func FindFixedPosition(ds *dataset.Dataset, row int, column string) (dataset.Cell, bool) {
	col, ok := ds.ColumnIndex(column)
	if !ok || row < 0 || row >= ds.NumRows() {
		return dataset.Cell{}, false
	}
	return ds.Cell(row, col), true
}
