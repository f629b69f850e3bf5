package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseExportFormat(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, ErrValidation) {
			t.Errorf("ParseExportFormat(%q) err = %v, want ErrValidation", tt.in, err)
		}
	}
}

func TestPrepareExport_Empty(t *testing.T) {
	svc := newTestService(t, newMemStore())
	if _, err := svc.PrepareExport(context.Background(), FormatCSV); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
}

func TestExport_CSV(t *testing.T) {
	store := newMemStore()
	store.seed(
		NewProduct{Name: "Widget", Unit: "pcs", Category: "Tools", Brand: "Acme", Stock: 4, Status: StatusActive, Image: "http://x/w.png"},
		NewProduct{Name: `Bolt, "hex"`, Stock: 0, Status: StatusInactive},
	)
	svc := newTestService(t, store)

	exp, err := svc.PrepareExport(context.Background(), FormatCSV)
	if err != nil {
		t.Fatalf("PrepareExport: %v", err)
	}
	if exp.Rows() != 2 {
		t.Errorf("Rows = %d, want 2", exp.Rows())
	}

	var buf bytes.Buffer
	n, err := exp.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	for i, col := range ExportColumns {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	// Sorted by name.
	bolt := records[1]
	if bolt[1] != `Bolt, "hex"` || bolt[5] != "0" || bolt[6] != "inactive" {
		t.Errorf("bolt record = %q", bolt)
	}
	widget := records[2]
	want := []string{"1", "Widget", "pcs", "Tools", "Acme", "4", "active", "http://x/w.png", "2024-03-01 09:00:01", "2024-03-01 09:00:01"}
	for i := range want {
		if widget[i] != want[i] {
			t.Errorf("widget[%d] = %q, want %q", i, widget[i], want[i])
		}
	}
}

func TestExport_XLSX(t *testing.T) {
	store := newMemStore()
	store.seed(NewProduct{Name: "Widget", Stock: 4, Status: StatusActive})
	svc := newTestService(t, store)

	exp, err := svc.PrepareExport(context.Background(), FormatXLSX)
	if err != nil {
		t.Fatalf("PrepareExport: %v", err)
	}

	var buf bytes.Buffer
	if _, err := exp.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "id" || rows[0][9] != "updated_at" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Widget" || rows[1][5] != "4" {
		t.Errorf("data row = %v", rows[1])
	}
}

func TestFormatExportTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := formatExportTime(time.Date(2024, 1, 2, 5, 4, 5, 0, loc))
	if got != "2024-01-02 03:04:05" {
		t.Errorf("formatExportTime = %q, want UTC rendering", got)
	}
	if formatExportTime(time.Time{}) != "" {
		t.Error("zero time should render empty")
	}
}

func TestExportFormat_Metadata(t *testing.T) {
	if FormatCSV.FileName() != "products.csv" || FormatXLSX.FileName() != "products.xlsx" {
		t.Error("unexpected export file names")
	}
	if FormatCSV.ContentType() != "text/csv" {
		t.Errorf("csv content type = %q", FormatCSV.ContentType())
	}
}
