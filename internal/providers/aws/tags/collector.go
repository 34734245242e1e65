// Package tags collects resource tag inventories: API Gateway REST APIs with
// their tags, and EC2 instances with their tags.
package tags

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Collector gathers tag inventory data. It must only fetch and convert;
// column discovery and report formatting belong to the caller.
type Collector interface {
	// CollectAPIGateways pages through every REST API in the region cfg is
	// scoped to and resolves each API's tags through the Resource Groups
	// Tagging API. A tag lookup failure for a single API leaves that API's
	// tag map empty rather than failing the collection.
	CollectAPIGateways(ctx context.Context, cfg aws.Config) ([]models.APIGateway, error)

	// CollectTaggedInstances pages through all EC2 instances in the region
	// cfg is scoped to, returning each instance ID with its tag map.
	CollectTaggedInstances(ctx context.Context, cfg aws.Config) ([]models.TaggedInstance, error)
}
