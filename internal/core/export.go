package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the file type of an export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat accepts "csv" (also the default for "") and "xlsx".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", &ValidationError{Field: "format", Message: "must be one of: csv, xlsx"}
	}
}

// ContentType is the MIME type for the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName is the download name for an export in format f.
func (f ExportFormat) FileName() string {
	return "products." + string(f)
}

// ExportColumns is the header row of every export, in column order.
var ExportColumns = []string{
	"id", "name", "unit", "category", "brand", "stock", "status", "image", "created_at", "updated_at",
}

// ExportTimeLayout formats timestamps in exports. Times are written in UTC.
const ExportTimeLayout = "2006-01-02 15:04:05"

// ExportSheet is the worksheet name of XLSX exports.
const ExportSheet = "Products"

// Export is a snapshot of the catalogue ready to be written out.
type Export struct {
	Format   ExportFormat
	products []Product
}

// NewExport wraps an already loaded product list.
func NewExport(format ExportFormat, products []Product) *Export {
	return &Export{Format: format, products: products}
}

// Rows returns the number of products in the export.
func (e *Export) Rows() int {
	return len(e.products)
}

// PrepareExport loads every product for export. It returns
// ErrNothingToExport when the catalogue is empty.
func (s *Service) PrepareExport(ctx context.Context, format ExportFormat) (*Export, error) {
	products, err := s.store.AllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNothingToExport
	}

	exportsTotal.WithLabelValues(string(format)).Inc()
	return NewExport(format, products), nil
}

// WriteTo writes the export to w in its format.
func (e *Export) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	var err error
	if e.Format == FormatXLSX {
		err = e.writeXLSX(cw)
	} else {
		err = e.writeCSV(cw)
	}
	return cw.n, err
}

func (e *Export) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range e.products {
		if err := cw.Write(exportRecord(p)); err != nil {
			return fmt.Errorf("write product %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Export) writeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(ExportSheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range e.products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{
			p.ID,
			p.Name,
			p.Unit,
			p.Category,
			p.Brand,
			p.Stock,
			string(p.Status),
			p.Image,
			formatExportTime(p.CreatedAt),
			formatExportTime(p.UpdatedAt),
		}); err != nil {
			return fmt.Errorf("write product %d: %w", p.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

func exportRecord(p Product) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		p.Unit,
		p.Category,
		p.Brand,
		strconv.Itoa(p.Stock),
		string(p.Status),
		p.Image,
		formatExportTime(p.CreatedAt),
		formatExportTime(p.UpdatedAt),
	}
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ExportTimeLayout)
}
