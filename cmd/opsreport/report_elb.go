package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/elb"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var lbHealthFixedColumns = []string{"Resource", "Name", "Status", "Account"}

// The ELBv2 control plane throttles aggressively, so this report runs a
// small pool with staggered submissions and a slow, patient retry policy.
const (
	lbHealthWorkers     = 3
	lbHealthMaxRetries  = 10
	lbHealthDelay       = 10 * time.Second
	lbHealthSubmitDelay = 2 * time.Second
	lbHealthJitter      = 3 * time.Second
)

func newLBHealthCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "lb-health",
		Short: "Report load balancer and target group health problems (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := elb.NewDefaultCollector()
			return runLBHealth(cmd.Context(), env, collector, profile, allProfiles, resolveOutputDir(outputDir, cfg))
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	return cmd
}

func runLBHealth(ctx context.Context, env *runEnv, collector elb.Collector, profile string, allProfiles bool, outputDir string) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, profile, allProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	policy := awsretry.Policy{MaxRetries: lbHealthMaxRetries, InitialDelay: lbHealthDelay}

	tasks := make([]fanout.Task[models.TargetHealthIssue], 0, len(profiles))
	for _, pc := range profiles {
		pc := pc
		tasks = append(tasks, fanout.Task[models.TargetHealthIssue]{
			Profile: pc.ProfileName,
			Run: func(ctx context.Context) ([]models.TargetHealthIssue, error) {
				return collector.CollectHealthIssues(ctx, pc.Config, policy, pc.ProfileName)
			},
		})
	}

	issues, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers:      lbHealthWorkers,
		SubmitDelay:  lbHealthSubmitDelay,
		SubmitJitter: lbHealthJitter,
		Logf:         env.console.Infof,
	})
	if len(failed) == len(tasks) && len(tasks) > 0 {
		return fmt.Errorf("all %d collection task(s) failed", len(tasks))
	}

	wb := report.NewWorkbook()
	if err := wb.AddSheet("Report", healthIssueRows(issues), lbHealthFixedColumns...); err != nil {
		return err
	}

	saved, err := wb.Save(report.TimestampedPath(outputDir, "lb_health_report", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d issue(s) to %s", len(issues), saved)
	return nil
}

func healthIssueRows(issues []models.TargetHealthIssue) []report.Row {
	rows := make([]report.Row, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, report.Row{
			"Resource": i.Resource,
			"Name":     i.Name,
			"Status":   i.Status,
			"Account":  i.Account,
		})
	}
	return rows
}
