package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportRow is one data row of an import file, keyed by header name.
type ImportRow struct {
	Line   int // 1-based line (CSV) or row (XLSX) number in the file
	header HeaderIndex
	cells  []string
}

// Get returns the trimmed cell under column. Missing columns and short rows
// yield "".
func (r ImportRow) Get(column string) string {
	v, _ := r.Lookup(column)
	return v
}

// Lookup is like Get but reports whether the row has a cell for column.
func (r ImportRow) Lookup(column string) (string, bool) {
	i, ok := r.header[column]
	if !ok || i >= len(r.cells) {
		return "", false
	}
	return strings.TrimSpace(r.cells[i]), true
}

// HeaderIndex maps normalized column names to their position.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row. Names are
// lower-cased and trimmed. When a name repeats, the first column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanHeader(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// CleanHeader strips whitespace and the ="..." wrapper spreadsheets add
// when a cell is exported as a formula.
func CleanHeader(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// isWorkbook reports whether name should be read as an XLSX workbook.
func isWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// fileRows reads the spooled file at path, choosing the format from the
// original upload name.
func fileRows(path, uploadName string) iter.Seq2[ImportRow, error] {
	if isWorkbook(uploadName) {
		return xlsxRows(path)
	}
	return func(yield func(ImportRow, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(ImportRow{}, fmt.Errorf("open spooled file: %w", err))
			return
		}
		defer f.Close()

		for row, err := range csvRows(f) {
			if !yield(row, err) {
				return
			}
		}
	}
}

// csvRows yields the data rows of a CSV stream. The first record is the
// header. Quotes are parsed leniently and rows may have any number of
// fields. A parse error ends the sequence with an ErrInvalidFile error.
func csvRows(r io.Reader) iter.Seq2[ImportRow, error] {
	return func(yield func(ImportRow, error) bool) {
		cr := csv.NewReader(WrapForImport(r))
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(ImportRow{}, fmt.Errorf("%w: read header: %v", ErrInvalidFile, err))
			return
		}
		idx := MakeHeaderIndex(header)

		for {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(ImportRow{}, fmt.Errorf("%w: %v", ErrInvalidFile, err))
				return
			}
			line, _ := cr.FieldPos(0)
			if !yield(ImportRow{Line: line, header: idx, cells: record}, nil) {
				return
			}
		}
	}
}

// xlsxRows yields the data rows of the first sheet of an XLSX workbook.
// Blank rows are ignored, including those before the header.
func xlsxRows(path string) iter.Seq2[ImportRow, error] {
	return func(yield func(ImportRow, error) bool) {
		f, err := excelize.OpenFile(path)
		if err != nil {
			yield(ImportRow{}, fmt.Errorf("%w: open workbook: %v", ErrInvalidFile, err))
			return
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return
		}

		rows, err := f.Rows(sheets[0])
		if err != nil {
			yield(ImportRow{}, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidFile, sheets[0], err))
			return
		}
		defer rows.Close()

		var idx HeaderIndex
		n := 0
		for rows.Next() {
			n++
			cells, err := rows.Columns()
			if err != nil {
				yield(ImportRow{}, fmt.Errorf("%w: row %d: %v", ErrInvalidFile, n, err))
				return
			}
			// Blank rows carry no cells; CSV blank lines are skipped the same way.
			if len(cells) == 0 {
				continue
			}
			if idx == nil {
				idx = MakeHeaderIndex(cells)
				continue
			}
			if !yield(ImportRow{Line: n, header: idx, cells: cells}, nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(ImportRow{}, fmt.Errorf("%w: %v", ErrInvalidFile, err))
		}
	}
}
