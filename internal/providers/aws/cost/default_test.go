package cost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

type stubCEClient struct {
	// costsByPeriod maps "start..end" to service -> daily amounts.
	costsByPeriod map[string]map[string][]string
	err           error
}

func (s *stubCEClient) GetCostAndUsage(_ context.Context, in *ce.GetCostAndUsageInput, _ ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	key := aws.ToString(in.TimePeriod.Start) + ".." + aws.ToString(in.TimePeriod.End)
	out := &ce.GetCostAndUsageOutput{}
	for service, amounts := range s.costsByPeriod[key] {
		for _, amount := range amounts {
			out.ResultsByTime = append(out.ResultsByTime, cetypes.ResultByTime{
				Groups: []cetypes.Group{{
					Keys: []string{service},
					Metrics: map[string]cetypes.MetricValue{
						"UnblendedCost": {Amount: aws.String(amount)},
					},
				}},
			})
		}
	}
	return out, nil
}

func TestComparisonPeriods(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		granularity Granularity
		curStart    string
		curEnd      string
		prevStart   string
		prevEnd     string
	}{
		{GranularityDaily, "2025-03-15", "2025-03-16", "2025-03-14", "2025-03-15"},
		{GranularityWeekly, "2025-03-08", "2025-03-15", "2025-03-01", "2025-03-08"},
		{GranularityMonthly, "2025-03-01", "2025-03-16", "2025-02-01", "2025-03-01"},
	}
	for _, tc := range cases {
		t.Run(string(tc.granularity), func(t *testing.T) {
			current, previous := ComparisonPeriods(now, tc.granularity)
			if current.Start != tc.curStart || current.End != tc.curEnd {
				t.Errorf("current = %+v; want [%s, %s)", current, tc.curStart, tc.curEnd)
			}
			if previous.Start != tc.prevStart || previous.End != tc.prevEnd {
				t.Errorf("previous = %+v; want [%s, %s)", previous, tc.prevStart, tc.prevEnd)
			}
		})
	}
}

func TestParseGranularity(t *testing.T) {
	for _, valid := range []string{"daily", "weekly", "monthly"} {
		if _, err := ParseGranularity(valid); err != nil {
			t.Errorf("ParseGranularity(%q): %v", valid, err)
		}
	}
	if _, err := ParseGranularity("hourly"); err == nil {
		t.Error("ParseGranularity(hourly): want error, got nil")
	}
}

func TestCollectComparison(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("computes rounded differences per service", func(t *testing.T) {
		stub := &stubCEClient{costsByPeriod: map[string]map[string][]string{
			// Daily current: today.
			"2025-03-15..2025-03-16": {
				"Amazon EC2": {"10.004"},
				"Amazon S3":  {"1.50"},
			},
			// Daily previous: yesterday.
			"2025-03-14..2025-03-15": {
				"Amazon EC2": {"8.00"},
				"AWS Lambda": {"0.40"},
			},
		}}

		c := NewDefaultCollectorWithFactory(func(aws.Config) ceClient { return stub }, clock)
		got, err := c.CollectComparison(context.Background(), aws.Config{}, GranularityDaily)
		if err != nil {
			t.Fatalf("CollectComparison: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d rows; want 3: %+v", len(got), got)
		}

		// Sorted by service name.
		if got[0].Service != "AWS Lambda" || got[1].Service != "Amazon EC2" || got[2].Service != "Amazon S3" {
			t.Fatalf("order = %v", []string{got[0].Service, got[1].Service, got[2].Service})
		}

		lambda := got[0]
		if lambda.CurrentCost != 0 || lambda.PreviousCost != 0.4 || lambda.Difference != -0.4 || lambda.PercentChange != -100 {
			t.Errorf("lambda = %+v", lambda)
		}

		ec2 := got[1]
		if ec2.CurrentCost != 10 || ec2.PreviousCost != 8 || ec2.Difference != 2 || ec2.PercentChange != 25 {
			t.Errorf("ec2 = %+v", ec2)
		}

		// New service: previous 0 means percent change stays 0.
		s3 := got[2]
		if s3.CurrentCost != 1.5 || s3.PreviousCost != 0 || s3.Difference != 1.5 || s3.PercentChange != 0 {
			t.Errorf("s3 = %+v", s3)
		}
	})

	t.Run("sums multiple daily datapoints", func(t *testing.T) {
		stub := &stubCEClient{costsByPeriod: map[string]map[string][]string{
			"2025-03-08..2025-03-15": {"Amazon EC2": {"1.00", "2.00", "3.00"}},
			"2025-03-01..2025-03-08": {"Amazon EC2": {"2.00"}},
		}}

		c := NewDefaultCollectorWithFactory(func(aws.Config) ceClient { return stub }, clock)
		got, err := c.CollectComparison(context.Background(), aws.Config{}, GranularityWeekly)
		if err != nil {
			t.Fatalf("CollectComparison: %v", err)
		}
		if len(got) != 1 || got[0].CurrentCost != 6 || got[0].PreviousCost != 2 || got[0].PercentChange != 200 {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("API failure propagates", func(t *testing.T) {
		stub := &stubCEClient{err: errors.New("DataUnavailableException")}
		c := NewDefaultCollectorWithFactory(func(aws.Config) ceClient { return stub }, clock)
		if _, err := c.CollectComparison(context.Background(), aws.Config{}, GranularityDaily); err == nil {
			t.Fatal("want error, got nil")
		}
	})
}
