// Package engine resolves which profiles and regions a report run targets.
package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/opsreport/internal/providers/aws/common"
)

// Resolver turns command flags into loaded profiles and region lists.
type Resolver struct {
	provider common.AWSClientProvider
}

// NewResolver constructs a Resolver over the supplied provider.
func NewResolver(provider common.AWSClientProvider) *Resolver {
	return &Resolver{provider: provider}
}

// ResolveProfiles loads the profiles a run targets. With allProfiles set,
// every discoverable profile is loaded and unloadable ones are returned as
// skipped; otherwise the single named profile is loaded (empty name means
// the default credential chain). An error is returned only when nothing at
// all could be loaded.
func (r *Resolver) ResolveProfiles(ctx context.Context, profile string, allProfiles bool) ([]*common.ProfileConfig, []common.ProfileError, error) {
	if !allProfiles {
		pc, err := r.provider.LoadProfile(ctx, profile)
		if err != nil {
			return nil, nil, err
		}
		return []*common.ProfileConfig{pc}, nil, nil
	}

	profiles, skipped, err := r.provider.LoadAllProfiles(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(profiles) == 0 {
		return nil, skipped, fmt.Errorf("no usable AWS profiles found")
	}
	return profiles, skipped, nil
}

// ResolveRegions returns the explicit region list when given, falling back
// to the regions the profile's account has opted into.
func (r *Resolver) ResolveRegions(ctx context.Context, profile *common.ProfileConfig, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	regions, err := r.provider.GetActiveRegions(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("discover regions for profile %q: %w", profile.ProfileName, err)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("no active regions for profile %q", profile.ProfileName)
	}
	return regions, nil
}
