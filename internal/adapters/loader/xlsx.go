package loader

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the raw values of the selected sheet. Formatted display
// text is ignored so numbers arrive unrounded.
func (l *Loader) readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheet := sheets[0]
	if l.sheet != "" {
		if idx, err := f.GetSheetIndex(l.sheet); err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, l.sheet)
		}
		sheet = l.sheet
	}
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}
