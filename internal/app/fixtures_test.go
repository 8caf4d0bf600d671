package service_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// recapRecords mirrors the standard export laid out as CSV.
func recapRecords() [][]string {
	width := 16
	header := make([]string, width)
	header[0] = "Recap"
	header[10] = "Organic & Total"
	rows := make([][]string, 8)
	for i := range rows {
		rows[i] = make([]string, width)
	}
	rows[0][0], rows[0][1] = "Program ER", "0.25678"
	rows[0][10], rows[0][11] = "Total Number of Posts With Stories", "18"
	rows[1][10], rows[1][11] = "Total Engagements", "5400"
	rows[2][10], rows[2][11] = "Total", "120000"
	rows[1][3] = "Proposed Metrics"
	rows[2][3], rows[2][4] = "Impressions", "1500000"
	rows[3][3], rows[3][4] = "Engagements", "12345"
	rows[4][3], rows[4][4] = "Influencers", "42"
	rows[4][15] = "0.081"
	rows[5][15] = "0.12"
	return append([][]string{header}, rows...)
}

func writeCSV(t *testing.T, dir, name string, records [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
	return path
}
