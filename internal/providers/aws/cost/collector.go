// Package cost compares per-service AWS spend across two periods using Cost
// Explorer.
package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Granularity selects the comparison window pair.
type Granularity string

const (
	// GranularityDaily compares today against yesterday.
	GranularityDaily Granularity = "daily"
	// GranularityWeekly compares the last 7 days against the 7 before.
	GranularityWeekly Granularity = "weekly"
	// GranularityMonthly compares month-to-date against the full previous
	// month.
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity validates a flag value.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("invalid granularity %q (want daily, weekly or monthly)", s)
}

// Period is a half-open [Start, End) date window in Cost Explorer's
// YYYY-MM-DD form.
type Period struct {
	Start string
	End   string
}

// ComparisonPeriods returns the current and previous windows for g, anchored
// at now.
func ComparisonPeriods(now time.Time, g Granularity) (current, previous Period) {
	day := now.UTC().Truncate(24 * time.Hour)
	const layout = "2006-01-02"

	switch g {
	case GranularityWeekly:
		current = Period{Start: day.AddDate(0, 0, -7).Format(layout), End: day.Format(layout)}
		previous = Period{Start: day.AddDate(0, 0, -14).Format(layout), End: day.AddDate(0, 0, -7).Format(layout)}
	case GranularityMonthly:
		monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		current = Period{Start: monthStart.Format(layout), End: day.AddDate(0, 0, 1).Format(layout)}
		previous = Period{Start: monthStart.AddDate(0, -1, 0).Format(layout), End: monthStart.Format(layout)}
	default: // daily
		current = Period{Start: day.Format(layout), End: day.AddDate(0, 0, 1).Format(layout)}
		previous = Period{Start: day.AddDate(0, 0, -1).Format(layout), End: day.Format(layout)}
	}
	return current, previous
}

// Collector gathers cost comparisons for one account.
type Collector interface {
	// CollectComparison fetches per-service spend for the two windows of g
	// and returns one row per service seen in either window, sorted by
	// service name. Costs, differences and percent changes are rounded to
	// two decimals; percent change is 0 when the previous period had no
	// spend.
	CollectComparison(ctx context.Context, cfg aws.Config, g Granularity) ([]models.CostComparison, error)
}
