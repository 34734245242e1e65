package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/ebs"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var ebsFixedColumns = []string{"SnapshotId", "AccountName", "Region", "CreatorARN", "StartTime", "Age (Days)"}

func newEBSSnapshotsCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		regions     []string
		allRegions  bool
		days        int
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "ebs-snapshots",
		Short: "Find self-owned EBS snapshots older than a cutoff (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := ebs.NewDefaultCollector()
			if days <= 0 {
				days = cfg.Reports.SnapshotAgeDays
			}
			if workers <= 0 {
				workers = cfg.Workers
			}
			return runEBSSnapshots(cmd.Context(), env, collector, ebsOptions{
				Profile:     profile,
				AllProfiles: allProfiles,
				Regions:     resolveRegionList(regions, cfg),
				AllRegions:  allRegions,
				MinAgeDays:  days,
				OutputDir:   resolveOutputDir(outputDir, cfg),
				Workers:     workers,
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "AWS region(s) to scan")
	cmd.Flags().BoolVar(&allRegions, "all-regions", false, "Scan every region the account has enabled")
	cmd.Flags().IntVar(&days, "days", 0, "Minimum snapshot age in days (default: 80)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

type ebsOptions struct {
	Profile     string
	AllProfiles bool
	Regions     []string
	AllRegions  bool
	MinAgeDays  int
	OutputDir   string
	Workers     int
}

func runEBSSnapshots(ctx context.Context, env *runEnv, collector ebs.Collector, opts ebsOptions) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, opts.Profile, opts.AllProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	var tasks []fanout.Task[models.EBSSnapshot]
	for _, pc := range profiles {
		regions, err := regionsForProfile(ctx, env, pc, opts.Regions, opts.AllRegions)
		if err != nil {
			env.console.Errorf("skipping profile %s: %v", pc.ProfileName, err)
			continue
		}
		for _, region := range regions {
			pc, region := pc, region
			cfg := env.provider.ConfigForRegion(pc, region)
			tasks = append(tasks, fanout.Task[models.EBSSnapshot]{
				Profile: pc.ProfileName,
				Region:  region,
				Run: func(ctx context.Context) ([]models.EBSSnapshot, error) {
					return collector.CollectOldSnapshots(ctx, cfg, pc.ProfileName, region, opts.MinAgeDays)
				},
			})
		}
	}

	snapshots, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: opts.Workers,
		Logf:    env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	if err := wb.AddSheet("Old Snapshots", ebsSnapshotRows(snapshots), ebsFixedColumns...); err != nil {
		return err
	}

	saved, err := wb.Save(report.TimestampedPath(opts.OutputDir, "old_ebs_snapshots", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d snapshot(s) older than %d days to %s", len(snapshots), opts.MinAgeDays, saved)
	return nil
}

func ebsSnapshotRows(snapshots []models.EBSSnapshot) []report.Row {
	rows := make([]report.Row, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, report.Row{
			"SnapshotId":  s.SnapshotID,
			"AccountName": s.AccountName,
			"Region":      s.Region,
			"CreatorARN":  s.CreatorARN,
			"StartTime":   s.StartTime,
			"Age (Days)":  s.AgeDays,
		})
	}
	return rows
}
