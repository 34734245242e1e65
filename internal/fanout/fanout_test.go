package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCollect_AggregatesAllRows(t *testing.T) {
	tasks := []Task[int]{
		{Profile: "a", Run: func(ctx context.Context) ([]int, error) { return []int{1, 2}, nil }},
		{Profile: "b", Run: func(ctx context.Context) ([]int, error) { return []int{3}, nil }},
		{Profile: "c", Run: func(ctx context.Context) ([]int, error) { return []int{4, 5, 6}, nil }},
	}

	rows, failed := Collect(context.Background(), tasks, Options{Workers: 2})
	if len(failed) != 0 {
		t.Fatalf("failed = %v; want none", failed)
	}

	sort.Ints(rows)
	want := []int{1, 2, 3, 4, 5, 6}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v; want %v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("rows[%d] = %d; want %d", i, rows[i], want[i])
		}
	}
}

func TestCollect_FailureIsIsolated(t *testing.T) {
	boom := errors.New("endpoint connection error")

	var logged []string
	var logMu sync.Mutex
	logf := func(format string, args ...any) {
		logMu.Lock()
		logged = append(logged, fmt.Sprintf(format, args...))
		logMu.Unlock()
	}

	tasks := []Task[string]{
		{Profile: "prod", Region: "us-east-1", Run: func(ctx context.Context) ([]string, error) {
			return []string{"row-prod"}, nil
		}},
		{Profile: "staging", Region: "eu-west-1", Run: func(ctx context.Context) ([]string, error) {
			return nil, boom
		}},
		{Profile: "dev", Region: "us-east-1", Run: func(ctx context.Context) ([]string, error) {
			return []string{"row-dev-1", "row-dev-2"}, nil
		}},
	}

	rows, failed := Collect(context.Background(), tasks, Options{Workers: 3, Logf: logf})

	if len(rows) != 3 {
		t.Errorf("rows = %v; want 3 rows from the two healthy tasks", rows)
	}
	if len(failed) != 1 {
		t.Fatalf("failed = %v; want exactly one", failed)
	}
	if failed[0].Profile != "staging" || failed[0].Region != "eu-west-1" {
		t.Errorf("failed task = %s/%s; want staging/eu-west-1", failed[0].Profile, failed[0].Region)
	}
	if !errors.Is(failed[0].Err, boom) {
		t.Errorf("failed err = %v; want %v", failed[0].Err, boom)
	}

	foundErrLine := false
	logMu.Lock()
	for _, line := range logged {
		if strings.Contains(line, "staging") && strings.Contains(line, "eu-west-1") && strings.Contains(line, "error") {
			foundErrLine = true
		}
	}
	logMu.Unlock()
	if !foundErrLine {
		t.Errorf("no error line logged for the failed profile/region; got %v", logged)
	}
}

func TestCollect_BoundedConcurrency(t *testing.T) {
	const workers = 3

	var current, peak int64
	task := func(ctx context.Context) ([]int, error) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return []int{1}, nil
	}

	var tasks []Task[int]
	for i := 0; i < 12; i++ {
		tasks = append(tasks, Task[int]{Profile: fmt.Sprintf("p%d", i), Run: task})
	}

	rows, failed := Collect(context.Background(), tasks, Options{Workers: workers})
	if len(failed) != 0 {
		t.Fatalf("failed = %v; want none", failed)
	}
	if len(rows) != 12 {
		t.Errorf("rows = %d; want 12", len(rows))
	}
	if got := atomic.LoadInt64(&peak); got > workers {
		t.Errorf("peak concurrency = %d; want <= %d", got, workers)
	}
}

// Three profiles, one of which fails for one region: all rows from the two
// healthy profiles and from the failing profile's healthy region survive, and
// the failed pair is reported.
func TestCollect_PartialProfileFailureEndToEnd(t *testing.T) {
	connErr := errors.New("dial tcp: i/o timeout")

	type row struct{ profile, region, id string }

	makeTask := func(profile, region string, err error, ids ...string) Task[row] {
		return Task[row]{Profile: profile, Region: region, Run: func(ctx context.Context) ([]row, error) {
			if err != nil {
				return nil, err
			}
			var out []row
			for _, id := range ids {
				out = append(out, row{profile, region, id})
			}
			return out, nil
		}}
	}

	tasks := []Task[row]{
		makeTask("alpha", "us-east-1", nil, "a1", "a2"),
		makeTask("alpha", "eu-west-1", nil, "a3"),
		makeTask("bravo", "us-east-1", nil, "b1"),
		makeTask("bravo", "eu-west-1", connErr),
		makeTask("charlie", "us-east-1", nil, "c1", "c2"),
		makeTask("charlie", "eu-west-1", nil, "c3"),
	}

	rows, failed := Collect(context.Background(), tasks, Options{Workers: 4})

	if len(failed) != 1 || failed[0].Profile != "bravo" || failed[0].Region != "eu-west-1" {
		t.Fatalf("failed = %v; want exactly bravo/eu-west-1", failed)
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.id] = true
	}
	for _, id := range []string{"a1", "a2", "a3", "b1", "c1", "c2", "c3"} {
		if !seen[id] {
			t.Errorf("row %s missing from aggregated report", id)
		}
	}
	if len(rows) != 7 {
		t.Errorf("rows = %d; want 7 (zero rows lost from successful tasks)", len(rows))
	}
}

func TestCollect_CancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task[int]{
		{Profile: "a", Run: func(ctx context.Context) ([]int, error) { return []int{1}, nil }},
		{Profile: "b", Run: func(ctx context.Context) ([]int, error) { return []int{2}, nil }},
	}

	// The first task may or may not be dispatched before cancellation is
	// observed; no rows may come from tasks recorded as skipped.
	rows, failed := Collect(ctx, tasks, Options{Workers: 1})
	if len(rows)+len(failed) < len(tasks) {
		t.Errorf("rows=%d failed=%d; every task must be accounted for", len(rows), len(failed))
	}
	for _, f := range failed {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("skipped task err = %v; want context.Canceled", f.Err)
		}
	}
}
