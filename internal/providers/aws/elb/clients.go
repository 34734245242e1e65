package elb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
)

// elbClient lists the ELBv2 operations this package calls. The Describe
// methods satisfy the SDK v2 paginator interfaces.
type elbClient interface {
	DescribeTargetGroups(
		ctx context.Context,
		params *elbv2.DescribeTargetGroupsInput,
		optFns ...func(*elbv2.Options),
	) (*elbv2.DescribeTargetGroupsOutput, error)
	DescribeTargetHealth(
		ctx context.Context,
		params *elbv2.DescribeTargetHealthInput,
		optFns ...func(*elbv2.Options),
	) (*elbv2.DescribeTargetHealthOutput, error)
	DescribeLoadBalancers(
		ctx context.Context,
		params *elbv2.DescribeLoadBalancersInput,
		optFns ...func(*elbv2.Options),
	) (*elbv2.DescribeLoadBalancersOutput, error)
}

// elbClientFactory creates an elbClient from an aws.Config.
type elbClientFactory func(cfg aws.Config) elbClient

// newDefaultELBClient is the production factory.
func newDefaultELBClient(cfg aws.Config) elbClient {
	return elbv2.NewFromConfig(cfg)
}
