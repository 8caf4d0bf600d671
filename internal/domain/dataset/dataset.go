package dataset

import (
	"strconv"
	"strings"
)

// Dataset is a rectangular table addressed by row index and column id.
// It is immutable after New; the label index is built once.
type Dataset struct {
	name     string
	columns  []string
	colIndex map[string]int
	rows     [][]Cell
	index    *Index
}

// New builds a dataset. Rows shorter than the header are padded with empty
// cells, longer rows are cut. The first occurrence of a column id wins.
func New(name string, columns []string, rows [][]Cell) *Dataset {
	cols := append([]string(nil), columns...)
	d := &Dataset{
		name:     name,
		columns:  cols,
		colIndex: make(map[string]int, len(cols)),
		rows:     make([][]Cell, len(rows)),
	}
	for i, c := range cols {
		if _, ok := d.colIndex[c]; !ok {
			d.colIndex[c] = i
		}
	}
	for i, r := range rows {
		row := make([]Cell, len(cols))
		copy(row, r)
		d.rows[i] = row
	}
	d.index = buildIndex(d.rows, len(cols))
	return d
}

// FromRecords builds a dataset from raw string records where the first
// record is the header, the way the loaders read every source format.
func FromRecords(name string, records [][]string) *Dataset {
	if len(records) == 0 {
		return New(name, nil, nil)
	}
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	copy(header, records[0])

	rows := make([][]Cell, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]Cell, width)
		for i, raw := range rec {
			row[i] = ParseCell(raw)
		}
		rows = append(rows, row)
	}
	return New(name, Header(header), rows)
}

// Header turns a raw header row into column ids: blank names become
// "Unnamed: <position>" and repeated names get ".1", ".2" suffixes.
func Header(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// Name returns the source name (usually the file name).
func (d *Dataset) Name() string { return d.name }

// Columns returns a copy of the column ids in order.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// NumRows returns the number of data rows (header excluded).
func (d *Dataset) NumRows() int { return len(d.rows) }

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// Cells returns the total cell count.
func (d *Dataset) Cells() int { return len(d.rows) * len(d.columns) }

// ColumnIndex resolves a column id to its position.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.colIndex[name]
	return i, ok
}

// HasColumn reports whether a column id exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colIndex[name]
	return ok
}

// Cell returns the cell at (row, col), or an empty cell when out of range.
func (d *Dataset) Cell(row, col int) Cell {
	if row < 0 || row >= len(d.rows) || col < 0 || col >= len(d.columns) {
		return Cell{}
	}
	return d.rows[row][col]
}

// Index returns the label index built at construction.
func (d *Dataset) Index() *Index { return d.index }
