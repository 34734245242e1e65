package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/rds"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var (
	idleRDSFixedColumns    = []string{"DBInstanceIdentifier", "DBInstanceClass", "Engine", "Region", "AccountName", "AccountNumber", "IdleStatus"}
	rdsStorageFixedColumns = []string{"AccountNumber", "DBInstanceIdentifier", "Engine", "AllocatedStorage", "DBInstanceClass", "StorageType", "Region"}
)

// idleRDSWorkers is larger than the default pool: the report is dominated by
// slow per-instance CloudWatch queries, not API rate limits.
const idleRDSWorkers = 10

func newIdleRDSCmd(cfg *config.Config) *cobra.Command {
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
		Use:   "idle-rds",
		Short: "Find RDS instances idle over the lookback window (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := rds.NewDefaultCollector()
			if days <= 0 {
				days = cfg.Reports.IdleDays
			}
			if workers <= 0 {
				workers = idleRDSWorkers
			}
			return runIdleRDS(cmd.Context(), env, collector, idleRDSOptions{
				Profile:      profile,
				AllProfiles:  allProfiles,
				Regions:      resolveRegionList(regions, cfg),
				AllRegions:   allRegions,
				LookbackDays: days,
				Thresholds:   cfg.Reports.IdleRDSThresholds,
				OutputDir:    resolveOutputDir(outputDir, cfg),
				Workers:      workers,
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "AWS region(s) to scan")
	cmd.Flags().BoolVar(&allRegions, "all-regions", false, "Scan every region the account has enabled")
	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (default: 30)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

type idleRDSOptions struct {
	Profile      string
	AllProfiles  bool
	Regions      []string
	AllRegions   bool
	LookbackDays int
	Thresholds   map[string]float64
	OutputDir    string
	Workers      int
}

func runIdleRDS(ctx context.Context, env *runEnv, collector rds.Collector, opts idleRDSOptions) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, opts.Profile, opts.AllProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	var tasks []fanout.Task[models.IdleRDSInstance]
	for _, pc := range profiles {
		regions, err := regionsForProfile(ctx, env, pc, opts.Regions, opts.AllRegions)
		if err != nil {
			env.console.Errorf("skipping profile %s: %v", pc.ProfileName, err)
			continue
		}
		for _, region := range regions {
			pc, region := pc, region
			cfg := env.provider.ConfigForRegion(pc, region)
			tasks = append(tasks, fanout.Task[models.IdleRDSInstance]{
				Profile: pc.ProfileName,
				Region:  region,
				Run: func(ctx context.Context) ([]models.IdleRDSInstance, error) {
					return collector.CollectIdleInstances(ctx, cfg, opts.Thresholds, opts.LookbackDays, pc.ProfileName, pc.AccountID, region)
				},
			})
		}
	}

	idle, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: opts.Workers,
		Logf:    env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	if err := wb.AddSheet("Idle RDS Instances", idleRDSRows(idle), idleRDSFixedColumns...); err != nil {
		return err
	}

	saved, err := wb.Save(report.TimestampedPath(opts.OutputDir, "idle_rds_instances", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d idle instance(s) to %s", len(idle), saved)
	return nil
}

func idleRDSRows(instances []models.IdleRDSInstance) []report.Row {
	rows := make([]report.Row, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, report.Row{
			"DBInstanceIdentifier": inst.DBInstanceID,
			"DBInstanceClass":      inst.DBInstanceClass,
			"Engine":               inst.Engine,
			"Region":               inst.Region,
			"AccountName":          inst.AccountName,
			"AccountNumber":        inst.AccountNumber,
			"IdleStatus":           inst.IdleStatus,
		})
	}
	return rows
}

// rdsStorageFilename is fixed: this report replaces its previous run instead
// of accumulating timestamped copies.
const rdsStorageFilename = "rds_gp2_storage_report.xlsx"

func newRDSStorageCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		regions     []string
		allRegions  bool
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "rds-storage",
		Short: "Find RDS instances still on gp2 storage, one sheet per profile and region (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := rds.NewDefaultCollector()
			if workers <= 0 {
				workers = cfg.Workers
			}
			return runRDSStorage(cmd.Context(), env, collector, rdsStorageOptions{
				Profile:     profile,
				AllProfiles: allProfiles,
				Regions:     resolveRegionList(regions, cfg),
				AllRegions:  allRegions,
				OutputDir:   resolveOutputDir(outputDir, cfg),
				Workers:     workers,
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "AWS region(s) to scan")
	cmd.Flags().BoolVar(&allRegions, "all-regions", false, "Scan every region the account has enabled")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

type rdsStorageOptions struct {
	Profile     string
	AllProfiles bool
	Regions     []string
	AllRegions  bool
	OutputDir   string
	Workers     int
}

func runRDSStorage(ctx context.Context, env *runEnv, collector rds.Collector, opts rdsStorageOptions) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, opts.Profile, opts.AllProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	var tasks []fanout.Task[profileSheet]
	for _, pc := range profiles {
		regions, err := regionsForProfile(ctx, env, pc, opts.Regions, opts.AllRegions)
		if err != nil {
			env.console.Errorf("skipping profile %s: %v", pc.ProfileName, err)
			continue
		}
		for _, region := range regions {
			pc, region := pc, region
			cfg := env.provider.ConfigForRegion(pc, region)
			tasks = append(tasks, fanout.Task[profileSheet]{
				Profile: pc.ProfileName,
				Region:  region,
				Run: func(ctx context.Context) ([]profileSheet, error) {
					instances, err := collector.CollectGP2Instances(ctx, cfg, pc.AccountNumber(), region)
					if err != nil {
						return nil, err
					}
					if len(instances) == 0 {
						return nil, nil
					}
					return []profileSheet{{
						Profile: fmt.Sprintf("%s_%s", pc.ProfileName, region),
						Rows:    gp2Rows(instances),
					}}, nil
				},
			})
		}
	}

	sheets, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: opts.Workers,
		Logf:    env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	total := 0
	for _, s := range sheets {
		if err := wb.AddSheet(s.Profile, s.Rows, rdsStorageFixedColumns...); err != nil {
			return err
		}
		total += len(s.Rows)
	}

	path, err := report.OverwritePath(opts.OutputDir, rdsStorageFilename)
	if err != nil {
		return err
	}
	saved, err := wb.Save(path)
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d gp2 instance(s) across %d sheet(s) to %s", total, wb.Sheets(), saved)
	return nil
}

func gp2Rows(instances []models.GP2Instance) []report.Row {
	rows := make([]report.Row, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, report.Row{
			"AccountNumber":        inst.AccountNumber,
			"DBInstanceIdentifier": inst.DBInstanceID,
			"Engine":               inst.Engine,
			"AllocatedStorage":     inst.AllocatedSizeGB,
			"DBInstanceClass":      inst.DBInstanceClass,
			"StorageType":          inst.StorageType,
			"Region":               inst.Region,
		})
	}
	return rows
}
