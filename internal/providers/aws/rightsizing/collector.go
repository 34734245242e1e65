// Package rightsizing finds Karpenter-provisioned EC2 instances where both
// the instance and at least one attached volume have an actionable Compute
// Optimizer recommendation.
package rightsizing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// ProvisionerTagKey is the tag Karpenter stamps on instances it launches.
const ProvisionerTagKey = "karpenter.sh/provisioner-name"

// Collector gathers rightsizing candidates for one profile region.
type Collector interface {
	// CollectCandidates lists instances carrying tagKey, then keeps those
	// where Compute Optimizer flags the instance as not optimized and
	// recommends a different volume type for at least one attached volume.
	// Every AWS call goes through the retry policy; profile, accountID and
	// region are stamped onto each candidate.
	CollectCandidates(ctx context.Context, cfg aws.Config, policy awsretry.Policy, profile, accountID, region, tagKey string) ([]models.RightsizingCandidate, error)
}
