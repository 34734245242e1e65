package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/common"
)

// ── AWS mock ──────────────────────────────────────────────────────────────────

type mockAWSProvider struct {
	profileResult *common.ProfileConfig
	profileErr    error
	regionsResult []string
	regionsErr    error
	lastProfile   string // records the profile name passed to LoadProfile
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, profile string) (*common.ProfileConfig, error) {
	m.lastProfile = profile
	return m.profileResult, m.profileErr
}

func (m *mockAWSProvider) LoadAllProfiles(_ context.Context) ([]*common.ProfileConfig, []common.ProfileError, error) {
	if m.profileResult != nil {
		return []*common.ProfileConfig{m.profileResult}, nil, nil
	}
	return nil, nil, m.profileErr
}

func (m *mockAWSProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return m.regionsResult, m.regionsErr
}

func (m *mockAWSProvider) ConfigForRegion(cfg *common.ProfileConfig, region string) aws.Config {
	c := cfg.Config
	c.Region = region
	return c
}

// ── helpers ───────────────────────────────────────────────────────────────────

func goodMockAWS() *mockAWSProvider {
	return &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			ProfileName: "default",
			AccountID:   "123456789012",
			Region:      "us-east-1",
		},
		regionsResult: []string{"us-east-1", "eu-west-1"},
	}
}

// runDoctorForTest runs runDoctor against a fresh temp output dir and a
// config path inside it (absent unless the test writes one first).
func runDoctorForTest(t *testing.T, awsP common.AWSClientProvider, configPath, format, profile string) (string, DoctorResult, error) {
	t.Helper()
	var buf bytes.Buffer
	loader := config.NewLoaderForPath(configPath)
	result, runErr := runDoctor(context.Background(), awsP, loader, t.TempDir(), &buf, format, profile)
	return buf.String(), result, runErr
}

// ── table format tests ────────────────────────────────────────────────────────

func TestDoctorAllOK(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, result, err := runDoctorForTest(t, goodMockAWS(), configPath, "table", "")
	if err != nil {
		t.Fatalf("runDoctor: %v", err)
	}
	if !result.OverallHealthy {
		t.Errorf("OverallHealthy = false; want true\noutput:\n%s", out)
	}
	for _, want := range []string{"Credentials: OK", "Account: 123456789012", "Regions API: OK", "Directory writable: OK", "Not found (optional)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestDoctorAWSFailure(t *testing.T) {
	awsP := &mockAWSProvider{profileErr: errors.New("no credentials")}
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, result, err := runDoctorForTest(t, awsP, configPath, "table", "prod")
	if err != nil {
		t.Fatalf("runDoctor: %v", err)
	}
	if result.OverallHealthy {
		t.Error("OverallHealthy = true; want false")
	}
	if awsP.lastProfile != "prod" {
		t.Errorf("LoadProfile received %q; want prod", awsP.lastProfile)
	}
	for _, want := range []string{"AWS (profile: prod):", "Credentials: FAIL (no credentials)", "STS Identity: FAIL (skipped)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestDoctorConfigChecks(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("workers: 7\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, result, err := runDoctorForTest(t, goodMockAWS(), configPath, "table", "")
		if err != nil {
			t.Fatalf("runDoctor: %v", err)
		}
		if !result.Config.Present || !result.Config.Valid {
			t.Errorf("config = %+v; want present and valid", result.Config)
		}
		if !result.OverallHealthy {
			t.Error("OverallHealthy = false; want true")
		}
	})

	t.Run("malformed config file fails the run", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("workers: [not an int\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		out, result, err := runDoctorForTest(t, goodMockAWS(), configPath, "table", "")
		if err != nil {
			t.Fatalf("runDoctor: %v", err)
		}
		if result.Config.Valid {
			t.Error("Config.Valid = true; want false")
		}
		if result.OverallHealthy {
			t.Error("OverallHealthy = true; want false")
		}
		if !strings.Contains(out, "Config valid: FAIL") {
			t.Errorf("output missing config failure; got:\n%s", out)
		}
	})
}

// ── JSON format test ──────────────────────────────────────────────────────────

func TestDoctorJSONFormat(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, _, err := runDoctorForTest(t, goodMockAWS(), configPath, "json", "")
	if err != nil {
		t.Fatalf("runDoctor: %v", err)
	}

	var decoded DoctorResult
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if !decoded.AWS.Credentials || decoded.AWS.AccountID != "123456789012" {
		t.Errorf("decoded.AWS = %+v", decoded.AWS)
	}
	if !decoded.Output.Writable {
		t.Errorf("decoded.Output = %+v", decoded.Output)
	}
	if !decoded.OverallHealthy {
		t.Error("decoded.OverallHealthy = false; want true")
	}
}
