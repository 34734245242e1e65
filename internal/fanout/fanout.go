// Package fanout runs per-profile (or per profile+region) collection tasks
// on a fixed-size worker pool and aggregates their rows.
//
// A failing task is logged and skipped; it never cancels its siblings and
// never removes rows already collected from completed tasks. Rows land in
// the result in completion order; no ordering across tasks is guaranteed.
package fanout

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Task binds a credential profile (and optionally a region) to one unit of
// work producing report rows. Tasks are independent: no task blocks on the
// result of another.
type Task[R any] struct {
	// Profile names the credential profile this task runs against.
	Profile string

	// Region is the AWS region, or empty for account-global work.
	Region string

	// Run fetches and returns the rows for this task.
	Run func(ctx context.Context) ([]R, error)
}

// TaskError records a task that was skipped after failing.
type TaskError struct {
	Profile string
	Region  string
	Err     error
}

// Options configures a Collect run.
type Options struct {
	// Workers is the pool size. Kept small (3-10) on purpose so a burst of
	// profiles does not trip provider rate limits. Defaults to 5.
	Workers int

	// SubmitDelay is a fixed pause between dispatching consecutive tasks.
	SubmitDelay time.Duration

	// SubmitJitter adds a random extra pause in [0, SubmitJitter) to each
	// inter-submission delay. Purely to smooth request bursts.
	SubmitJitter time.Duration

	// Logf receives progress and error lines. Nil disables logging.
	Logf func(format string, args ...any)
}

const defaultWorkers = 5

// Collect submits every task to the pool and appends each task's rows to the
// shared result as the task completes. Tasks that return an error are logged,
// recorded in the returned TaskError slice, and excluded from the rows; the
// remaining tasks continue unaffected. Collect returns once every task has
// finished or failed.
func Collect[R any](ctx context.Context, tasks []Task[R], opts Options) ([]R, []TaskError) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	sem := make(chan struct{}, workers)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex // guards rows and failed; single-writer aggregation
		rows   []R
		failed []TaskError
	)

	for i, t := range tasks {
		if i > 0 {
			pauseBetweenSubmissions(ctx, opts)
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Stop dispatching; tasks not yet submitted are recorded as
			// skipped so the caller's summary stays honest.
			mu.Lock()
			for _, rest := range tasks[i:] {
				failed = append(failed, TaskError{Profile: rest.Profile, Region: rest.Region, Err: ctx.Err()})
			}
			mu.Unlock()
			wg.Wait()
			return rows, failed
		}

		wg.Add(1)
		go func(t Task[R]) {
			defer wg.Done()
			defer func() { <-sem }()

			got, err := t.Run(ctx)
			if err != nil {
				logf("error: %s: %v", taskLabel(t.Profile, t.Region), err)
				mu.Lock()
				failed = append(failed, TaskError{Profile: t.Profile, Region: t.Region, Err: err})
				mu.Unlock()
				return
			}

			logf("completed %s: %d row(s)", taskLabel(t.Profile, t.Region), len(got))
			mu.Lock()
			rows = append(rows, got...)
			mu.Unlock()
		}(t)
	}

	wg.Wait()
	return rows, failed
}

// pauseBetweenSubmissions sleeps for SubmitDelay plus jitter, returning early
// when ctx is cancelled. A zero delay and zero jitter is a no-op.
func pauseBetweenSubmissions(ctx context.Context, opts Options) {
	d := opts.SubmitDelay
	if opts.SubmitJitter > 0 {
		d += time.Duration(rand.Int63n(int64(opts.SubmitJitter)))
	}
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func taskLabel(profile, region string) string {
	if region == "" {
		return "profile " + profile
	}
	return "profile " + profile + " region " + region
}
