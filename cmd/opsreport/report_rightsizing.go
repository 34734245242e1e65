package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/rightsizing"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var rightsizingFixedColumns = []string{"Profile", "AccountId", "Region", "InstanceId", "VolumeIds"}

func newRightsizingCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		regions     []string
		allRegions  bool
		tagKey      string
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "rightsizing",
		Short: "Find Karpenter instances with Compute Optimizer rightsizing recommendations (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := rightsizing.NewDefaultCollector()
			if tagKey == "" {
				tagKey = cfg.Reports.KarpenterTagKey
			}
			if workers <= 0 {
				workers = cfg.Workers
			}
			return runRightsizing(cmd.Context(), env, collector, rightsizingOptions{
				Profile:     profile,
				AllProfiles: allProfiles,
				Regions:     resolveRegionList(regions, cfg),
				AllRegions:  allRegions,
				TagKey:      tagKey,
				OutputDir:   resolveOutputDir(outputDir, cfg),
				Workers:     workers,
				Policy: awsretry.Policy{
					MaxRetries:   cfg.Retry.MaxRetries,
					InitialDelay: cfg.Retry.InitialDelay(),
				},
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "AWS region(s) to scan")
	cmd.Flags().BoolVar(&allRegions, "all-regions", false, "Scan every region the account has enabled")
	cmd.Flags().StringVar(&tagKey, "tag-key", "", "Provisioner tag identifying candidate instances")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

type rightsizingOptions struct {
	Profile     string
	AllProfiles bool
	Regions     []string
	AllRegions  bool
	TagKey      string
	OutputDir   string
	Workers     int
	Policy      awsretry.Policy
}

func runRightsizing(ctx context.Context, env *runEnv, collector rightsizing.Collector, opts rightsizingOptions) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, opts.Profile, opts.AllProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	var tasks []fanout.Task[models.RightsizingCandidate]
	for _, pc := range profiles {
		regions, err := regionsForProfile(ctx, env, pc, opts.Regions, opts.AllRegions)
		if err != nil {
			env.console.Errorf("skipping profile %s: %v", pc.ProfileName, err)
			continue
		}
		for _, region := range regions {
			pc, region := pc, region
			cfg := env.provider.ConfigForRegion(pc, region)
			tasks = append(tasks, fanout.Task[models.RightsizingCandidate]{
				Profile: pc.ProfileName,
				Region:  region,
				Run: func(ctx context.Context) ([]models.RightsizingCandidate, error) {
					return collector.CollectCandidates(ctx, cfg, opts.Policy, pc.ProfileName, pc.AccountID, region, opts.TagKey)
				},
			})
		}
	}

	candidates, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: opts.Workers,
		Logf:    env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	if err := wb.AddSheet("Summary", rightsizingRows(candidates), rightsizingFixedColumns...); err != nil {
		return err
	}

	saved, err := wb.Save(report.TimestampedPath(opts.OutputDir, "rightsizing_candidates", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d candidate(s) to %s", len(candidates), saved)
	return nil
}

func rightsizingRows(candidates []models.RightsizingCandidate) []report.Row {
	rows := make([]report.Row, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, report.Row{
			"Profile":    c.Profile,
			"AccountId":  c.AccountID,
			"Region":     c.Region,
			"InstanceId": c.InstanceID,
			"VolumeIds":  strings.Join(c.VolumeIDs, ", "),
		})
	}
	return rows
}
