package common

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultAWSClientProvider is the production AWSClientProvider. Profiles
// come from the standard AWS shared config and credentials files
// (~/.aws/config and ~/.aws/credentials) via the AWS SDK v2.
type DefaultAWSClientProvider struct {
	factory ClientFactory
}

// NewDefaultAWSClientProvider returns a provider backed by the real SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider whose base
// clients come from f. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// LoadProfile loads the SDK config for the named profile, resolves its
// account ID through STS, and returns the populated ProfileConfig.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", displayName(profile), err)
	}

	// Profiles without a region still need constructible clients.
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	clients := p.factory(cfg)

	out, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("resolve account for profile %q: %w", displayName(profile), err)
	}
	if out.Account == nil {
		return nil, fmt.Errorf("profile %q: STS returned no account", displayName(profile))
	}

	return &ProfileConfig{
		ProfileName: displayName(profile),
		AccountID:   aws.ToString(out.Account),
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// LoadAllProfiles discovers every profile in the shared AWS files and loads
// each one. Profiles that cannot be loaded are returned in the second slice
// for logging; one bad profile never blocks the rest.
func (p *DefaultAWSClientProvider) LoadAllProfiles(ctx context.Context) ([]*ProfileConfig, []ProfileError, error) {
	names, err := discoverProfileNames()
	if err != nil {
		return nil, nil, fmt.Errorf("discover AWS profiles: %w", err)
	}

	var (
		profiles []*ProfileConfig
		skipped  []ProfileError
	)
	for _, name := range names {
		arg := name
		if name == "default" {
			arg = ""
		}
		pc, loadErr := p.LoadProfile(ctx, arg)
		if loadErr != nil {
			skipped = append(skipped, ProfileError{Name: name, Err: loadErr})
			continue
		}
		profiles = append(profiles, pc)
	}
	return profiles, skipped, nil
}

// GetActiveRegions returns the regions the account has opted into, via EC2
// DescribeRegions (a global call, valid from any home region).
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false), // opted-in regions only
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config pointed at region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

func displayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// discoverProfileNames merges the section names of ~/.aws/credentials and
// ~/.aws/config, deduplicated in first-seen order.
func discoverProfileNames() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	credNames, err := profilesFromINI(filepath.Join(home, ".aws", "credentials"), false)
	if err != nil {
		return nil, err
	}
	cfgNames, err := profilesFromINI(filepath.Join(home, ".aws", "config"), true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for _, name := range append(credNames, cfgNames...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		all = append(all, name)
	}
	return all, nil
}

// profilesFromINI scans path for [section] headers. When stripPrefix is true
// the "profile " prefix used by ~/.aws/config is removed. A missing file
// yields no names and no error.
func profilesFromINI(path string, stripPrefix bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}
		name := line[1 : len(line)-1]
		if stripPrefix && name != "default" {
			name = strings.TrimPrefix(name, "profile ")
		}
		names = append(names, strings.TrimSpace(name))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return names, nil
}
