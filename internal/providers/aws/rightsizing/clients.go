package rightsizing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/computeoptimizer"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
)

// rightsizingEC2Client covers instance enumeration. Satisfies
// ec2.DescribeInstancesAPIClient for the SDK v2 paginator.
type rightsizingEC2Client interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2svc.DescribeInstancesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeInstancesOutput, error)
}

// optimizerClient covers the two Compute Optimizer lookups this package makes.
type optimizerClient interface {
	GetEC2InstanceRecommendations(
		ctx context.Context,
		params *computeoptimizer.GetEC2InstanceRecommendationsInput,
		optFns ...func(*computeoptimizer.Options),
	) (*computeoptimizer.GetEC2InstanceRecommendationsOutput, error)
	GetEBSVolumeRecommendations(
		ctx context.Context,
		params *computeoptimizer.GetEBSVolumeRecommendationsInput,
		optFns ...func(*computeoptimizer.Options),
	) (*computeoptimizer.GetEBSVolumeRecommendationsOutput, error)
}

// rightsizingClients holds the service clients for one collection run.
type rightsizingClients struct {
	EC2       rightsizingEC2Client
	Optimizer optimizerClient
}

// rightsizingClientFactory creates a rightsizingClients from an aws.Config.
type rightsizingClientFactory func(cfg aws.Config) *rightsizingClients

// newDefaultRightsizingClients is the production factory.
func newDefaultRightsizingClients(cfg aws.Config) *rightsizingClients {
	return &rightsizingClients{
		EC2:       ec2svc.NewFromConfig(cfg),
		Optimizer: computeoptimizer.NewFromConfig(cfg),
	}
}
