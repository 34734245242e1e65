package cost

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
)

// ceClient covers the single Cost Explorer operation this package calls.
// Cost Explorer is a global service; the factory pins it to us-east-1.
type ceClient interface {
	GetCostAndUsage(
		ctx context.Context,
		params *ce.GetCostAndUsageInput,
		optFns ...func(*ce.Options),
	) (*ce.GetCostAndUsageOutput, error)
}

// ceClientFactory creates a ceClient from an aws.Config.
type ceClientFactory func(cfg aws.Config) ceClient

// newDefaultCEClient is the production factory.
func newDefaultCEClient(cfg aws.Config) ceClient {
	ceCfg := cfg
	ceCfg.Region = "us-east-1"
	return ce.NewFromConfig(ceCfg)
}
