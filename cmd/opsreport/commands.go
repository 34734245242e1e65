package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/console"
	"github.com/pankaj-dahiya-devops/opsreport/internal/engine"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/opsreport/internal/report"
	"github.com/pankaj-dahiya-devops/opsreport/internal/version"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "opsreport",
		Short: "AWS operational reports across profiles and regions",
	}
	root.AddCommand(newReportCmd(cfg))
	root.AddCommand(newDoctorCmd(cfg))
	root.AddCommand(newVersionCmd())
	return root
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate an operational report",
	}
	cmd.AddCommand(newAPITagsCmd(cfg))
	cmd.AddCommand(newEC2TagsCmd(cfg))
	cmd.AddCommand(newEBSSnapshotsCmd(cfg))
	cmd.AddCommand(newRightsizingCmd(cfg))
	cmd.AddCommand(newIAMAccessCmd(cfg))
	cmd.AddCommand(newIAMPrincipalsCmd(cfg))
	cmd.AddCommand(newIdleRDSCmd(cfg))
	cmd.AddCommand(newRDSStorageCmd(cfg))
	cmd.AddCommand(newLBHealthCmd(cfg))
	cmd.AddCommand(newCostTrendsCmd(cfg))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(version.Info())
		},
	}
}

// runEnv bundles the pieces every report command builds at run time.
type runEnv struct {
	provider common.AWSClientProvider
	resolver *engine.Resolver
	console  *console.Console
}

func newRunEnv(cmd *cobra.Command) *runEnv {
	provider := common.NewDefaultAWSClientProvider()
	return &runEnv{
		provider: provider,
		resolver: engine.NewResolver(provider),
		console:  console.New(cmd.OutOrStdout()),
	}
}

// reportSkipped logs profiles that could not be loaded. They never fail the
// run; the summary just has to say so.
func (e *runEnv) reportSkipped(skipped []common.ProfileError) {
	for _, s := range skipped {
		e.console.Errorf("skipping profile %s: %v", s.Name, s.Err)
	}
}

// resolveOutputDir applies the flag > config > built-in default precedence.
func resolveOutputDir(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return report.DefaultOutputDir()
}

// resolveRegionList applies the flag > config precedence for multi-region
// reports.
func resolveRegionList(flagValue []string, cfg *config.Config) []string {
	if len(flagValue) > 0 {
		return flagValue
	}
	return cfg.Regions
}

// regionsForProfile picks the regions a profile's tasks cover: the static
// list normally, or the account's enabled regions when discovery is requested
// via --all-regions.
func regionsForProfile(ctx context.Context, env *runEnv, pc *common.ProfileConfig, static []string, discover bool) ([]string, error) {
	if discover {
		return env.resolver.ResolveRegions(ctx, pc, nil)
	}
	return static, nil
}
