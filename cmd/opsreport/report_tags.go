package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/fanout"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/tags"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
)

var apiTagsFixedColumns = []string{"id", "name", "description", "created_date", "resource_arn"}

func newAPITagsCmd(cfg *config.Config) *cobra.Command {
	var (
		profile   string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "api-tags",
		Short: "List API Gateway REST APIs with their tags (CSV)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := tags.NewDefaultCollector()
			return runAPITags(cmd.Context(), env, collector, profile, resolveOutputDir(outputDir, cfg))
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	return cmd
}

func runAPITags(ctx context.Context, env *runEnv, collector tags.Collector, profile, outputDir string) error {
	pc, err := env.provider.LoadProfile(ctx, profile)
	if err != nil {
		return err
	}

	env.console.Infof("collecting API gateways for profile %s", pc.ProfileName)
	apis, err := collector.CollectAPIGateways(ctx, pc.Config)
	if err != nil {
		return fmt.Errorf("collect API gateways: %w", err)
	}

	rows := apiGatewayRows(apis)
	path := report.TimestampedPath(outputDir, "api_gateways", "csv")
	saved, err := report.SaveCSV(path, rows, apiTagsFixedColumns...)
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d API(s) to %s", len(rows), saved)
	return nil
}

// apiGatewayRows flattens APIs into rows: fixed identity columns plus one
// dynamic column per tag key.
func apiGatewayRows(apis []models.APIGateway) []report.Row {
	rows := make([]report.Row, 0, len(apis))
	for _, api := range apis {
		r := report.Row{
			"id":           api.ID,
			"name":         api.Name,
			"description":  api.Description,
			"resource_arn": api.ResourceARN,
		}
		if !api.CreatedDate.IsZero() {
			r["created_date"] = api.CreatedDate.Format("2006-01-02")
		}
		for k, v := range api.Tags {
			r[k] = v
		}
		rows = append(rows, r)
	}
	return rows
}

func newEC2TagsCmd(cfg *config.Config) *cobra.Command {
	var (
		profile     string
		allProfiles bool
		region      string
		outputDir   string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "ec2-tags",
		Short: "List EC2 instances with their tags, one sheet per profile (XLSX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newRunEnv(cmd)
			collector := tags.NewDefaultCollector()
			if workers <= 0 {
				workers = cfg.Workers
			}
			return runEC2Tags(cmd.Context(), env, collector, ec2TagsOptions{
				Profile:     profile,
				AllProfiles: allProfiles,
				Region:      region,
				OutputDir:   resolveOutputDir(outputDir, cfg),
				Workers:     workers,
			})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Report every configured AWS profile")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: each profile's home region)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the report file (default: ~/Downloads)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fan-out pool size")
	return cmd
}

type ec2TagsOptions struct {
	Profile     string
	AllProfiles bool
	Region      string
	OutputDir   string
	Workers     int
}

// profileSheet is one profile's worth of rows, headed for its own sheet.
type profileSheet struct {
	Profile string
	Rows    []report.Row
}

func runEC2Tags(ctx context.Context, env *runEnv, collector tags.Collector, opts ec2TagsOptions) error {
	profiles, skipped, err := env.resolver.ResolveProfiles(ctx, opts.Profile, opts.AllProfiles)
	if err != nil {
		return err
	}
	env.reportSkipped(skipped)

	tasks := make([]fanout.Task[profileSheet], 0, len(profiles))
	for _, pc := range profiles {
		pc := pc
		region := opts.Region
		if region == "" {
			region = pc.Region
		}
		cfg := env.provider.ConfigForRegion(pc, region)
		tasks = append(tasks, fanout.Task[profileSheet]{
			Profile: pc.ProfileName,
			Region:  region,
			Run: func(ctx context.Context) ([]profileSheet, error) {
				instances, err := collector.CollectTaggedInstances(ctx, cfg)
				if err != nil {
					return nil, err
				}
				return []profileSheet{{Profile: pc.ProfileName, Rows: taggedInstanceRows(instances)}}, nil
			},
		})
	}

	sheets, failed := fanout.Collect(ctx, tasks, fanout.Options{
		Workers: opts.Workers,
		Logf:    env.console.Infof,
	})
	if len(sheets) == 0 {
		return fmt.Errorf("no profile produced data (%d failed)", len(failed))
	}

	wb := report.NewWorkbook()
	total := 0
	for _, s := range sheets {
		if err := wb.AddSheet(s.Profile, s.Rows, "InstanceId"); err != nil {
			return err
		}
		total += len(s.Rows)
	}

	saved, err := wb.Save(report.TimestampedPath(opts.OutputDir, "ec2_instance_tags", "xlsx"))
	if err != nil {
		return err
	}

	env.console.Successf("wrote %d instance(s) across %d sheet(s) to %s", total, wb.Sheets(), saved)
	return nil
}

func taggedInstanceRows(instances []models.TaggedInstance) []report.Row {
	rows := make([]report.Row, 0, len(instances))
	for _, inst := range instances {
		r := report.Row{"InstanceId": inst.InstanceID}
		for k, v := range inst.Tags {
			r[k] = v
		}
		rows = append(rows, r)
	}
	return rows
}
