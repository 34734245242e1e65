package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var costFixedColumns = []string{"Service", "Current Cost", "Previous Cost", "Difference", "Percent Change"}

func newCostTrendsCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		granularity string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "cost-trends",
		Short: "Compare per-service spend across periods via Cost Explorer (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := cost.NewDefaultCollector()

			granularities, err := parseGranularities(granularity)
			if err != nil {
				return err
			}
			return runCostTrends(cmd.Context(), env, collector, profile, granularities, resolveOutputDir(outputDir, cfg))
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&granularity, "granularity", "all", "Comparison window: daily, weekly, monthly or all")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	return cmd
}

// parseGranularities expands "all" into every comparison window.
func parseGranularities(flag string) ([]cost.Granularity, error) {
	if flag == "all" {
		return []cost.Granularity{cost.GranularityDaily, cost.GranularityWeekly, cost.GranularityMonthly}, nil
	}
	g, err := cost.ParseGranularity(flag)
	if err != nil {
		return nil, err
	}
	return []cost.Granularity{g}, nil
}

func runCostTrends(ctx context.Context, env *runEnv, collector cost.Collector, profile string, granularities []cost.Granularity, outputDir string) error {
	pc, err := env.provider.LoadProfile(ctx, profile)
	if err != nil {
		return err
	}

	wb := report.NewWorkbook()
	total := 0
	for _, g := range granularities {
		env.console.Infof("comparing %s spend for profile %s", g, pc.ProfileName)
		comparisons, err := collector.CollectComparison(ctx, pc.Config, g)
		if err != nil {
			return fmt.Errorf("%s comparison: %w", g, err)
		}
		if err := wb.AddSheet(sheetNameFor(g), costRows(comparisons), costFixedColumns...); err != nil {
			return err
		}
		total += len(comparisons)
	}

	saved, err := wb.Save(report.TimestampedPath(outputDir, "cost_trends", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d comparison row(s) across %d sheet(s) to %s", total, wb.Sheets(), saved)
	return nil
}

func sheetNameFor(g cost.Granularity) string {
	return strings.ToUpper(string(g)[:1]) + string(g)[1:]
}

func costRows(comparisons []models.CostComparison) []report.Row {
	rows := make([]report.Row, 0, len(comparisons))
	for _, c := range comparisons {
		rows = append(rows, report.Row{
			"Service":        c.Service,
			"Current Cost":   c.CurrentCost,
			"Previous Cost":  c.PreviousCost,
			"Difference":     c.Difference,
			"Percent Change": c.PercentChange,
		})
	}
	return rows
}
