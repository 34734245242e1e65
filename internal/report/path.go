package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultOutputDir is where report files land when no directory is
// configured: the user's Downloads folder, matching where operators
// historically looked for these reports.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// TimestampedPath builds an output path under dir whose name carries the
// run timestamp, so repeated runs never overwrite earlier reports:
// <dir>/<prefix>_20060102_150405.<ext>
func TimestampedPath(dir, prefix, ext string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, ts, ext))
}

// OverwritePath builds a fixed-name output path under dir and removes any
// file already there, for the reports that deliberately replace the previous
// run instead of accumulating timestamped copies.
func OverwritePath(dir, filename string) (string, error) {
	path := filepath.Join(dir, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("remove existing report %q: %w", path, err)
	}
	return path, nil
}
