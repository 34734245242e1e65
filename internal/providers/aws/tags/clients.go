package tags

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	tagging "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
)

// Narrow client interfaces: each lists only the SDK operations this package
// calls, so unit tests can swap in stub structs with canned data.

// apiGatewayClient covers REST API enumeration. Satisfies
// apigateway.GetRestApisAPIClient for the SDK v2 paginator.
type apiGatewayClient interface {
	GetRestApis(
		ctx context.Context,
		params *apigateway.GetRestApisInput,
		optFns ...func(*apigateway.Options),
	) (*apigateway.GetRestApisOutput, error)
}

// taggingClient covers tag lookup through the Resource Groups Tagging API.
type taggingClient interface {
	GetResources(
		ctx context.Context,
		params *tagging.GetResourcesInput,
		optFns ...func(*tagging.Options),
	) (*tagging.GetResourcesOutput, error)
}

// tagsEC2Client covers instance enumeration. Satisfies
// ec2.DescribeInstancesAPIClient for the SDK v2 paginator.
type tagsEC2Client interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2svc.DescribeInstancesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeInstancesOutput, error)
}

// tagsClients holds the service clients for one collection run.
type tagsClients struct {
	APIGW   apiGatewayClient
	Tagging taggingClient
	EC2     tagsEC2Client
}

// tagsClientFactory creates a tagsClients from an aws.Config.
type tagsClientFactory func(cfg aws.Config) *tagsClients

// newDefaultTagsClients is the production factory.
func newDefaultTagsClients(cfg aws.Config) *tagsClients {
	return &tagsClients{
		APIGW:   apigateway.NewFromConfig(cfg),
		Tagging: tagging.NewFromConfig(cfg),
		EC2:     ec2svc.NewFromConfig(cfg),
	}
}
