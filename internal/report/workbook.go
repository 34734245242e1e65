package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetNameLen is the workbook format's hard limit on sheet names.
const maxSheetNameLen = 31

// Workbook accumulates named sheets of rows and writes them as a single
// XLSX file. Sheet names are sanitized and deduplicated on Add, so callers
// can pass raw partition labels (profile names, profile_region pairs).
type Workbook struct {
	f     *excelize.File
	used  map[string]bool
	count int
}

// NewWorkbook returns an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{
		f:    excelize.NewFile(),
		used: make(map[string]bool),
	}
}

// AddSheet appends a sheet holding rows under the given columns (fixed
// columns first, then the sorted union of remaining keys). The sheet name is
// sanitized and, on collision with an earlier sheet, suffixed numerically so
// both partitions survive in the output.
func (wb *Workbook) AddSheet(name string, rows []Row, fixed ...string) error {
	sheet := wb.reserveName(name)

	if wb.count == 0 {
		// Rename the workbook's implicit first sheet instead of leaving an
		// empty "Sheet1" behind.
		if err := wb.f.SetSheetName(wb.f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("name sheet %q: %w", sheet, err)
		}
	} else {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %q: %w", sheet, err)
		}
	}
	wb.count++

	if len(rows) == 0 && len(fixed) == 0 {
		return wb.setCell(sheet, 1, 1, "No data found")
	}

	cols := Columns(rows, fixed...)
	for i, c := range cols {
		if err := wb.setCell(sheet, i+1, 1, c); err != nil {
			return err
		}
	}
	for ri, r := range rows {
		for ci, c := range cols {
			v, ok := r[c]
			if !ok || v == nil {
				v = Missing
			}
			if err := wb.setCell(sheet, ci+1, ri+2, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sheets returns the number of sheets added so far.
func (wb *Workbook) Sheets() int { return wb.count }

// SheetNames returns the final (sanitized, deduplicated) sheet names in
// insertion order.
func (wb *Workbook) SheetNames() []string {
	return wb.f.GetSheetList()
}

// Save writes the workbook to path, creating the parent directory when
// needed, and returns the absolute path. A workbook with no sheets gets a
// single placeholder sheet so the file is still a valid document.
func (wb *Workbook) Save(path string) (string, error) {
	if wb.count == 0 {
		if err := wb.AddSheet("Report", nil); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir for %q: %w", path, err)
	}
	if err := wb.f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %q: %w", path, err)
	}
	if err := wb.f.Close(); err != nil {
		return "", fmt.Errorf("close workbook %q: %w", path, err)
	}
	return filepath.Abs(path)
}

func (wb *Workbook) setCell(sheet string, col, row int, v any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := wb.f.SetCellValue(sheet, axis, v); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, axis, err)
	}
	return nil
}

// reserveName sanitizes name and resolves collisions with numeric suffixes,
// recording the final name as used.
func (wb *Workbook) reserveName(name string) string {
	base := SanitizeSheetName(name)
	sheet := base
	for suffix := 1; wb.used[sheet]; suffix++ {
		// Leave room for "_N" within the 31-character limit.
		trimmed := base
		if len(trimmed) > maxSheetNameLen-3 {
			trimmed = trimmed[:maxSheetNameLen-3]
		}
		sheet = fmt.Sprintf("%s_%d", trimmed, suffix)
	}
	wb.used[sheet] = true
	return sheet
}

var accountSuffix = regexp.MustCompile(`(_account|_Account)$`)

// SanitizeSheetName converts a raw partition label (often a profile name)
// into a legal sheet name: the redundant "_account" suffix is dropped, path
// separators become hyphens, and the result is truncated to 31 characters.
func SanitizeSheetName(name string) string {
	name = accountSuffix.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetNameLen {
		name = name[:maxSheetNameLen]
	}
	return name
}
