package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"github.com/okian/recapdeck/pkg/logger"
	"golang.org/x/text/encoding/charmap"
)

// readCSV reads every well-formed record. Malformed lines are skipped and
// counted; text that is not valid UTF-8 is decoded as Windows-1252.
func (l *Loader) readCSV(ctx context.Context, path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, _ := br.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		records [][]string
		skipped int
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		for i, field := range rec {
			rec[i] = toUTF8(field)
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		l.log.Warn(ctx, "skipped malformed csv lines", logger.Int("lines", skipped))
	}
	return records, nil
}

func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
