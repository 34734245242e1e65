package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/iam"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var (
	iamAccessFixedColumns     = []string{"RoleName", "ServiceName", "LastAccessed"}
	iamPrincipalsFixedColumns = []string{"PrincipalId", "Type", "Name", "ARN"}
)

func newIAMAccessCmd(cfg *config.Config) *cobra.Command {
	var (
		profile   string
		maxRoles  int
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "iam-access",
		Short: "Report when IAM roles last used each service, via Access Advisor (CSV)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := iam.NewDefaultCollector()
			if maxRoles == 0 {
				maxRoles = cfg.Reports.MaxRoles
			}
			return runIAMAccess(cmd.Context(), env, collector, profile, maxRoles, resolveOutputDir(outputDir, cfg))
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().IntVar(&maxRoles, "max-roles", 0, "How many roles to inspect; Access Advisor jobs are slow (default: 3, -1 for all)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	return cmd
}

func runIAMAccess(ctx context.Context, env *runEnv, collector iam.Collector, profile string, maxRoles int, outputDir string) error {
	pc, err := env.provider.LoadProfile(ctx, profile)
	if err != nil {
		return err
	}

	access, err := collector.CollectServiceAccess(ctx, pc.Config, maxRoles, func(roleName string) {
		env.console.Infof("inspecting role %s", roleName)
	})
	if err != nil {
		return fmt.Errorf("collect service access: %w", err)
	}

	rows := serviceAccessRows(access, time.Now())
	path := report.TimestampedPath(outputDir, "iam_service_access", "csv")
	saved, err := report.SaveCSV(path, rows, iamAccessFixedColumns...)
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d access record(s) to %s", len(rows), saved)
	return nil
}

// serviceAccessRows renders access entries; the last-used column reads
// "N days ago" or "Never".
func serviceAccessRows(access []models.ServiceAccess, now time.Time) []report.Row {
	rows := make([]report.Row, 0, len(access))
	for _, a := range access {
		rows = append(rows, report.Row{
			"RoleName":     a.RoleName,
			"ServiceName":  a.ServiceName,
			"LastAccessed": formatLastAccessed(a.LastAuthenticated, now),
		})
	}
	return rows
}

func formatLastAccessed(t *time.Time, now time.Time) string {
	if t == nil {
		return "Never"
	}
	days := int(now.UTC().Sub(t.UTC()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%d days ago", days)
}

func newIAMPrincipalsCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "iam-principals",
		Short: "Inventory IAM users and roles across profiles (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := iam.NewDefaultCollector()
			if workers <= 0 {
				workers = cfg.Workers
			}
			return runIAMPrincipals(cmd.Context(), env, collector, profile, allProfiles, resolveOutputDir(outputDir, cfg), workers)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

func runIAMPrincipals(ctx context.Context, env *runEnv, collector iam.Collector, profile string, allProfiles bool, outputDir string, workers int) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, profile, allProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	tasks := make([]fanout.Task[models.IAMPrincipal], 0, len(profiles))
	for _, pc := range profiles {
		pc := pc
		tasks = append(tasks, fanout.Task[models.IAMPrincipal]{
			Profile: pc.ProfileName,
			Run: func(ctx context.Context) ([]models.IAMPrincipal, error) {
				return collector.CollectPrincipals(ctx, pc.Config)
			},
		})
	}

	principals, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: workers,
		Logf:    env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	if err := wb.AddSheet("Principal Mappings", principalRows(principals), iamPrincipalsFixedColumns...); err != nil {
		return err
	}

	saved, err := wb.Save(report.TimestampedPath(outputDir, "iam_principal_mappings", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d principal(s) to %s", len(principals), saved)
	return nil
}

func principalRows(principals []models.IAMPrincipal) []report.Row {
	rows := make([]report.Row, 0, len(principals))
	for _, p := range principals {
		rows = append(rows, report.Row{
			"PrincipalId": p.PrincipalID,
			"Type":        p.Type,
			"Name":        p.Name,
			"ARN":         p.ARN,
		})
	}
	return rows
}
