package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/table"
)

func TestCSVFormatter_Format(t *testing.T) {
	f := NewCSVFormatter(FormatOptions{})
	if f.Name() != "csv" {
		t.Errorf("Name() = %q, want %q", f.Name(), "csv")
	}

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Got %d records, want header + 2 rows", len(records))
	}
	if records[0][0] != "dtm" || records[0][25] != "source" {
		t.Errorf("Header = %v", records[0])
	}
	if records[1][1] != "018" {
		t.Errorf("lamp = %q, want %q", records[1][1], "018")
	}
	if records[1][2] != "23.5" {
		t.Errorf("T = %q, want %q", records[1][2], "23.5")
	}
	if records[2][3] != "301.5" {
		t.Errorf("A_1 = %q, want %q", records[2][3], "301.5")
	}
	if records[1][24] != "18.03.21 10:15:00" {
		t.Errorf("dtm_ori = %q", records[1][24])
	}
}

func TestCSVFormatter_Format_HeaderOnly(t *testing.T) {
	tbl := table.New([3]string{"A", "D", "W"})
	report := NewReport(&extractor.Result{Kind: extractor.KindOK, Table: tbl}, "")

	var buf bytes.Buffer
	if err := NewCSVFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(records) != 1 || len(records[0]) != 26 {
		t.Errorf("Got %v, want a single 26-column header", records)
	}
}

func TestCSVFormatter_Format_NoSchema(t *testing.T) {
	report := NewReport(&extractor.Result{Kind: extractor.KindEmpty, Table: table.Empty()}, "")

	var buf bytes.Buffer
	if err := NewCSVFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}
