// Package report turns collected rows into tabular report files: delimited
// text (CSV) or multi-sheet XLSX workbooks under a local output directory.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Row is one record of output data keyed by column name. Schemas vary per
// report and may grow dynamically, e.g. one column per discovered tag key.
type Row map[string]any

// Missing is the sentinel rendered for a cell whose column exists in other
// rows but not in this one.
const Missing = "None"

// Columns returns the effective column list for a set of rows: the fixed
// columns first, in the given order, followed by the sorted union of every
// remaining key seen across all rows. Sorting the dynamic tail keeps output
// deterministic run to run.
func Columns(rows []Row, fixed ...string) []string {
	isFixed := make(map[string]bool, len(fixed))
	for _, c := range fixed {
		isFixed[c] = true
	}

	extra := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			if !isFixed[k] {
				extra[k] = true
			}
		}
	}

	dynamic := make([]string, 0, len(extra))
	for k := range extra {
		dynamic = append(dynamic, k)
	}
	sort.Strings(dynamic)

	out := make([]string, 0, len(fixed)+len(dynamic))
	out = append(out, fixed...)
	return append(out, dynamic...)
}

// Cell renders the value of column col in r, or the Missing sentinel when
// the row has no value for that column.
func (r Row) Cell(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return Missing
	}
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
