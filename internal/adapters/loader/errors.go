package loader

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions other than
	// .csv, .xls and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrSheetNotFound is returned when the configured sheet is absent.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoSheets is returned for workbooks without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")
)
