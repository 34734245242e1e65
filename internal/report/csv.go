package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteCSV writes rows to w with a header line first. Column order is the
// fixed columns followed by the sorted union of all dynamically discovered
// keys; missing cells render as the Missing sentinel.
func WriteCSV(w io.Writer, rows []Row, fixed ...string) error {
	cols := Columns(rows, fixed...)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	record := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			record[i] = r.Cell(c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes rows to a new file at path, creating the parent directory
// when needed, and returns the absolute path.
func SaveCSV(path string, rows []Row, fixed ...string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create CSV file %q: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows, fixed...); err != nil {
		return "", err
	}
	return filepath.Abs(path)
}
