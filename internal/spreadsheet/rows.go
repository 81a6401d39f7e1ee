// Package spreadsheet reads monitoring data from xls/xlsx workbooks.
//
// Only the first sheet is read. Its first row is a header and is skipped;
// every following non-blank row maps to one model.MonitoringRecord by fixed
// column position (see Columns). Rows is a single-pass iterator over the
// underlying stream, in the style of sql.Rows:
//
//	rows, err := spreadsheet.Open(r, "xlsx")
//	if err != nil { ... }
//	defer rows.Close()
//	for rows.Next() {
//	    rec := rows.Record()
//	}
//	if err := rows.Err(); err != nil { ... }
//
// The first malformed row stops iteration with a *RowError.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"dataplatform/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoSheet           = errors.New("workbook has no sheets")
)

// RowError reports the spreadsheet row (1-based, header included) and column
// that could not be converted.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// source yields raw cell values row by row.
type source interface {
	Next() bool
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Rows iterates parsed records.
type Rows struct {
	src  source
	line int
	rec  model.MonitoringRecord
	err  error
}

// Open starts reading r as a workbook of the given extension ("xls" or
// "xlsx", case-insensitive).
func Open(r io.Reader, ext string) (*Rows, error) {
	var (
		src source
		err error
	)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "xlsx":
		src, err = openXLSX(r)
	case "xls":
		src, err = openXLS(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return &Rows{src: src}, nil
}

// Next advances to the next data row. It returns false at the end of the
// sheet or on the first error; check Err afterwards.
func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}
	for r.src.Next() {
		r.line++
		cols, err := r.src.Columns()
		if err != nil {
			r.err = &RowError{Row: r.line, Err: err}
			return false
		}
		if r.line == 1 || isBlank(cols) {
			continue
		}
		rec, err := parseRecord(cols)
		if err != nil {
			var ce *cellError
			if errors.As(err, &ce) {
				r.err = &RowError{Row: r.line, Column: ce.column, Err: ce.err}
			} else {
				r.err = &RowError{Row: r.line, Err: err}
			}
			return false
		}
		r.rec = rec
		return true
	}
	if err := r.src.Err(); err != nil {
		r.err = err
	}
	return false
}

// Record returns the row read by the last successful Next.
func (r *Rows) Record() model.MonitoringRecord {
	return r.rec
}

// Line returns the spreadsheet row number of the current record.
func (r *Rows) Line() int {
	return r.line
}

// Err returns the error that stopped iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the workbook.
func (r *Rows) Close() error {
	return r.src.Close()
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
