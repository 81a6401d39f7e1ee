package spreadsheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// The BIFF format needs random access, so the upload is buffered. Callers
// cap its size before getting here.
type xlsSource struct {
	rows [][]string
	next int
	cur  []string
}

func openXLS(r io.Reader) (*xlsSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xls: %w", err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheet
	}
	if sheet.MaxRow == 0 {
		// Header only, or empty.
		return &xlsSource{}, nil
	}

	// With no XF records numeric cells render raw. Date-formatted cells would
	// otherwise come back as "2006.01".
	wb.Xfs = nil

	// ReadAllCells walks the sheets in order; capping it at the first sheet's
	// row count keeps it on that sheet.
	return &xlsSource{rows: wb.ReadAllCells(int(sheet.MaxRow) + 1)}, nil
}

func (s *xlsSource) Next() bool {
	if s.next >= len(s.rows) {
		return false
	}
	s.cur = s.rows[s.next]
	s.next++
	return true
}

func (s *xlsSource) Columns() ([]string, error) { return s.cur, nil }
func (s *xlsSource) Err() error                 { return nil }
func (s *xlsSource) Close() error               { return nil }
