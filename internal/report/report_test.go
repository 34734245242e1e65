package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestColumns_SortedUnionAfterFixed(t *testing.T) {
	rows := []Row{
		{"id": "1", "a": "x", "b": "y"},
		{"id": "2", "a": "x", "c": "z"},
	}

	got := Columns(rows, "id")
	want := []string{"id", "a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("columns = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("columns[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestWriteCSV_DynamicColumnsAndSentinel(t *testing.T) {
	rows := []Row{
		{"a": "1", "b": "2"},
		{"a": "3", "c": "4"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d; want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "a,b,c" {
		t.Errorf("header = %q; want a,b,c (sorted union)", lines[0])
	}
	if lines[1] != "1,2,"+Missing {
		t.Errorf("row 1 = %q; want missing c rendered as %q", lines[1], Missing)
	}
	if lines[2] != "3,"+Missing+",4" {
		t.Errorf("row 2 = %q; want missing b rendered as %q", lines[2], Missing)
	}
}

func TestWriteCSV_HeaderOnlyForEmptyRowsWithFixedColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, "id", "name"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "id,name" {
		t.Errorf("output = %q; want header only", got)
	}
}

func TestSanitizeSheetName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"staging_account", "staging"},
		{"staging_Account", "staging"},
		{"team/alpha\\beta", "team-alpha-beta"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{"", "Sheet"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := SanitizeSheetName(tc.in); got != tc.want {
			t.Errorf("SanitizeSheetName(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestWorkbook_DeduplicatesCollidingSheetNames(t *testing.T) {
	// Both labels sanitize to the same 31-character name.
	long := strings.Repeat("a", 31)
	first := long + "_one"
	second := long + "_two"

	wb := NewWorkbook()
	if err := wb.AddSheet(first, []Row{{"k": "v1"}}); err != nil {
		t.Fatalf("AddSheet first: %v", err)
	}
	if err := wb.AddSheet(second, []Row{{"k": "v2"}}); err != nil {
		t.Fatalf("AddSheet second: %v", err)
	}

	names := wb.SheetNames()
	if len(names) != 2 {
		t.Fatalf("sheets = %v; want both partitions present", names)
	}
	if names[0] != long {
		t.Errorf("first sheet = %q; want %q", names[0], long)
	}
	wantSecond := long[:28] + "_1"
	if names[1] != wantSecond {
		t.Errorf("second sheet = %q; want %q", names[1], wantSecond)
	}
	for _, n := range names {
		if len(n) > 31 {
			t.Errorf("sheet name %q exceeds 31 characters", n)
		}
	}
}

func TestWorkbook_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")

	wb := NewWorkbook()
	rows := []Row{
		{"InstanceId": "i-1", "env": "prod"},
		{"InstanceId": "i-2", "team": "db"},
	}
	if err := wb.AddSheet("prod_account", rows, "InstanceId"); err != nil {
		t.Fatalf("AddSheet: %v", err)
	}

	abs, err := wb.Save(path)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("saved workbook missing: %v", err)
	}
	if got := wb.SheetNames(); len(got) != 1 || got[0] != "prod" {
		t.Errorf("sheet names = %v; want [prod]", got)
	}
}

func TestTimestampedPath(t *testing.T) {
	p := TimestampedPath("/tmp/reports", "idle_rds_instances", "xlsx")
	base := filepath.Base(p)
	if !strings.HasPrefix(base, "idle_rds_instances_") || !strings.HasSuffix(base, ".xlsx") {
		t.Errorf("path = %q; want idle_rds_instances_<timestamp>.xlsx", p)
	}
}

func TestOverwritePath_RemovesExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "report.xlsx")
	if err := os.WriteFile(existing, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := OverwritePath(dir, "report.xlsx")
	if err != nil {
		t.Fatalf("OverwritePath: %v", err)
	}
	if got != existing {
		t.Errorf("path = %q; want %q", got, existing)
	}
	if _, err := os.Stat(existing); !os.IsNotExist(err) {
		t.Errorf("stale file still present")
	}
}
