package cost

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory ceClientFactory
	now     func() time.Time
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultCEClient, now: time.Now}
}

// NewDefaultCollectorWithFactory returns a collector whose client comes from
// f and whose clock is now. Pass stubs in tests.
func NewDefaultCollectorWithFactory(f ceClientFactory, now func() time.Time) *DefaultCollector {
	return &DefaultCollector{factory: f, now: now}
}

// CollectComparison implements Collector.
func (d *DefaultCollector) CollectComparison(ctx context.Context, cfg aws.Config, g Granularity) ([]models.CostComparison, error) {
	client := d.factory(cfg)
	current, previous := ComparisonPeriods(d.now(), g)

	// The two windows are independent; fetch them in parallel.
	var currentCosts, previousCosts map[string]float64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		currentCosts, err = d.serviceCosts(egCtx, client, current)
		return err
	})
	eg.Go(func() error {
		var err error
		previousCosts, err = d.serviceCosts(egCtx, client, previous)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	services := make(map[string]bool, len(currentCosts)+len(previousCosts))
	for s := range currentCosts {
		services[s] = true
	}
	for s := range previousCosts {
		services[s] = true
	}

	comparisons := make([]models.CostComparison, 0, len(services))
	for service := range services {
		cur := round2(currentCosts[service])
		prev := round2(previousCosts[service])
		diff := round2(cur - prev)
		var pct float64
		if prev != 0 {
			pct = round2(diff / prev * 100)
		}
		comparisons = append(comparisons, models.CostComparison{
			Service:       service,
			CurrentCost:   cur,
			PreviousCost:  prev,
			Difference:    diff,
			PercentChange: pct,
		})
	}
	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Service < comparisons[j].Service
	})
	return comparisons, nil
}

// serviceCosts sums UnblendedCost per service over the period.
func (d *DefaultCollector) serviceCosts(ctx context.Context, client ceClient, p Period) (map[string]float64, error) {
	totals := make(map[string]float64)

	var nextToken *string
	for {
		out, err := client.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(p.Start),
				End:   aws.String(p.End),
			},
			Granularity: cetypes.GranularityDaily,
			Metrics:     []string{"UnblendedCost"},
			GroupBy: []cetypes.GroupDefinition{
				{Key: aws.String("SERVICE"), Type: cetypes.GroupDefinitionTypeDimension},
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("GetCostAndUsage %s..%s: %w", p.Start, p.End, err)
		}

		for _, result := range out.ResultsByTime {
			for _, group := range result.Groups {
				if len(group.Keys) == 0 {
					continue
				}
				metric, ok := group.Metrics["UnblendedCost"]
				if !ok {
					continue
				}
				totals[group.Keys[0]] += parseCostFloat(metric.Amount)
			}
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}
	return totals, nil
}

// parseCostFloat converts a Cost Explorer amount string; unparsable or
// missing amounts count as zero.
func parseCostFloat(amount *string) float64 {
	if amount == nil {
		return 0
	}
	v, err := strconv.ParseFloat(*amount, 64)
	if err != nil {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
