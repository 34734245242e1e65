package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/common"
)

// DoctorResult is the structured output of opsreport doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable table
// (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Output struct {
		Dir      string `json:"dir"`
		Writable bool   `json:"writable"`
		Error    string `json:"error,omitempty"`
	} `json:"output"`

	Config struct {
		Path    string `json:"path"`
		Present bool   `json:"present"`
		Valid   bool   `json:"valid"`
		Error   string `json:"error,omitempty"`
	} `json:"config"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			result, err := runDoctor(
				context.Background(),
				common.NewDefaultAWSClientProvider(),
				config.NewDefaultLoader(),
				resolveOutputDir("", cfg),
				cmd.OutOrStdout(),
				format,
				profile,
			)
			if err != nil {
				// Rendering failure; let main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (default: credential chain)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result. The returned error covers only
// rendering failures; callers must inspect result.OverallHealthy.
func runDoctor(ctx context.Context, awsProvider common.AWSClientProvider, loader config.Loader, outputDir string, w io.Writer, format, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, awsProvider, loader, outputDir, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a
// DoctorResult. It performs no rendering.
func collectDoctorResult(ctx context.Context, awsProvider common.AWSClientProvider, loader config.Loader, outputDir, profile string) DoctorResult {
	var result DoctorResult

	// AWS: credentials → STS account ID → region discovery.
	// An empty profile string selects the default credential chain.
	if profile != "" {
		result.AWS.Profile = profile
	}
	profileCfg, err := awsProvider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		_, err = awsProvider.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
		}
	}

	// Output directory: must exist (or be creatable) and accept writes.
	result.Output.Dir = outputDir
	if err := checkWritable(outputDir); err != nil {
		result.Output.Error = err.Error()
	} else {
		result.Output.Writable = true
	}

	// Config file: optional; when present it must parse.
	result.Config.Path = loader.ConfigPath()
	if _, statErr := os.Stat(loader.ConfigPath()); statErr == nil {
		result.Config.Present = true
		if _, loadErr := loader.Load(); loadErr != nil {
			result.Config.Error = loadErr.Error()
		} else {
			result.Config.Valid = true
		}
	} else if !os.IsNotExist(statErr) {
		result.Config.Present = true
		result.Config.Error = statErr.Error()
	}

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		result.Output.Writable &&
		(!result.Config.Present || result.Config.Valid)

	return result
}

// checkWritable verifies dir accepts file creation by writing and removing a
// probe file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	probe := filepath.Join(dir, ".opsreport_probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("write probe file: %w", err)
	}
	return os.Remove(probe)
}

// renderDoctorTable writes the human-readable diagnostic output to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nOutput:")
	if result.Output.Writable {
		doctorPrint(w, "Directory writable", "OK", result.Output.Dir)
	} else {
		doctorPrint(w, "Directory writable", "FAIL", result.Output.Error)
	}

	fmt.Fprintln(w, "\nConfig:")
	if !result.Config.Present {
		doctorPrint(w, "config.yaml present", "Not found (optional)", "")
	} else {
		doctorPrint(w, "config.yaml present", "YES", result.Config.Path)
		if result.Config.Valid {
			doctorPrint(w, "Config valid", "OK", "")
		} else {
			doctorPrint(w, "Config valid", "FAIL", result.Config.Error)
		}
	}
}

// doctorPrint writes a single diagnostic check line to w. When detail is
// non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
