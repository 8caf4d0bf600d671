package dataset

// Position addresses a cell.
type Position struct {
	Row int
	Col int
}

// Index maps normalized cell text to the first row holding it in every
// column, and to the first position anywhere in column-major order.
type Index struct {
	byColumn []map[string]int
	anywhere map[string]Position
}

func buildIndex(rows [][]Cell, width int) *Index {
	ix := &Index{
		byColumn: make([]map[string]int, width),
		anywhere: make(map[string]Position),
	}
	for col := 0; col < width; col++ {
		m := make(map[string]int)
		for row := range rows {
			key := rows[row][col].Normalized()
			if key == "" {
				continue
			}
			if _, ok := m[key]; !ok {
				m[key] = row
			}
			if _, ok := ix.anywhere[key]; !ok {
				ix.anywhere[key] = Position{Row: row, Col: col}
			}
		}
		ix.byColumn[col] = m
	}
	return ix
}

// Row returns the first row in col whose normalized text equals label.
func (ix *Index) Row(col int, label string) (int, bool) {
	if col < 0 || col >= len(ix.byColumn) {
		return 0, false
	}
	row, ok := ix.byColumn[col][Normalize(label)]
	return row, ok
}

// First returns the first position holding label, scanning column by column.
func (ix *Index) First(label string) (Position, bool) {
	p, ok := ix.anywhere[Normalize(label)]
	return p, ok
}
