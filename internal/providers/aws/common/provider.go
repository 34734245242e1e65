package common

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved credential profile with its SDK configuration
// and base clients. It is the unit each report task is constructed around;
// nothing in it is shared mutable state, so tasks for different profiles
// never interfere.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is the AWS account ID resolved via STS at load time.
	AccountID string

	// Region is the profile's home region.
	Region string

	// Config is the loaded AWS SDK v2 configuration for this profile.
	Config aws.Config

	// Clients holds the base service clients scoped to the home region.
	// Report packages build their own region-scoped clients from
	// ConfigForRegion + their package factory.
	Clients *ClientSet
}

// AccountNumber derives the account-number label some reports use from the
// profile name: the part before the first '.' (profiles are conventionally
// named "<account number>.<alias>").
func (p *ProfileConfig) AccountNumber() string {
	name, _, _ := strings.Cut(p.ProfileName, ".")
	return name
}

// ProfileError records a configured profile that could not be loaded
// (missing or expired credentials, unreachable STS). The run logs it and
// continues with the remaining profiles.
type ProfileError struct {
	Name string
	Err  error
}

// AWSClientProvider loads credential profiles and resolves regions. It is
// the single entry point for credential management across all reports.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string for the default profile.
	LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error)

	// LoadAllProfiles loads every profile found in ~/.aws/credentials and
	// ~/.aws/config. Profiles that fail to load are returned separately so
	// the caller can log them; they never abort the run.
	LoadAllProfiles(ctx context.Context) ([]*ProfileConfig, []ProfileError, error)

	// GetActiveRegions returns the regions enabled for cfg's account.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)

	// ConfigForRegion clones cfg's SDK config with the target region set,
	// for constructing region-scoped service clients.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config
}
