package tags

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	tagging "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// DefaultCollector is the production Collector backed by the real AWS SDK.
// Inject a custom factory via NewDefaultCollectorWithFactory in tests.
type DefaultCollector struct {
	factory tagsClientFactory
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultTagsClients}
}

// NewDefaultCollectorWithFactory returns a collector whose clients come
// from f. Pass a mock factory in tests.
func NewDefaultCollectorWithFactory(f tagsClientFactory) *DefaultCollector {
	return &DefaultCollector{factory: f}
}

// CollectAPIGateways enumerates REST APIs and joins each with its tags.
func (d *DefaultCollector) CollectAPIGateways(ctx context.Context, cfg aws.Config) ([]models.APIGateway, error) {
	clients := d.factory(cfg)

	paginator := apigateway.NewGetRestApisPaginator(clients.APIGW, &apigateway.GetRestApisInput{})

	var apis []models.APIGateway
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("GetRestApis page: %w", err)
		}
		for _, item := range page.Items {
			api := models.APIGateway{
				ID:          aws.ToString(item.Id),
				Name:        aws.ToString(item.Name),
				Description: aws.ToString(item.Description),
				ResourceARN: restAPIARN(cfg.Region, aws.ToString(item.Id)),
				Tags:        map[string]string{},
			}
			if item.Name == nil {
				api.Name = "Unnamed API"
			}
			if item.Description == nil {
				api.Description = "No description available"
			}
			if item.CreatedDate != nil {
				api.CreatedDate = *item.CreatedDate
			}

			// Per-API tag lookup; a failure here degrades to an untagged
			// entry instead of dropping the whole report.
			if tagsMap, err := d.lookupTags(ctx, clients.Tagging, api.ResourceARN); err == nil {
				api.Tags = tagsMap
			}

			apis = append(apis, api)
		}
	}
	return apis, nil
}

// lookupTags resolves the tag map for a single resource ARN.
func (d *DefaultCollector) lookupTags(ctx context.Context, client taggingClient, arn string) (map[string]string, error) {
	out, err := client.GetResources(ctx, &tagging.GetResourcesInput{
		ResourceARNList: []string{arn},
	})
	if err != nil {
		return nil, fmt.Errorf("GetResources %s: %w", arn, err)
	}

	tagsMap := make(map[string]string)
	for _, mapping := range out.ResourceTagMappingList {
		for _, t := range mapping.Tags {
			if t.Key != nil && t.Value != nil {
				tagsMap[*t.Key] = *t.Value
			}
		}
	}
	return tagsMap, nil
}

// CollectTaggedInstances enumerates every instance with its tags.
func (d *DefaultCollector) CollectTaggedInstances(ctx context.Context, cfg aws.Config) ([]models.TaggedInstance, error) {
	clients := d.factory(cfg)

	paginator := ec2svc.NewDescribeInstancesPaginator(clients.EC2, &ec2svc.DescribeInstancesInput{})

	var instances []models.TaggedInstance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				ti := models.TaggedInstance{
					InstanceID: aws.ToString(inst.InstanceId),
					Tags:       make(map[string]string, len(inst.Tags)),
				}
				for _, t := range inst.Tags {
					if t.Key != nil && t.Value != nil {
						ti.Tags[*t.Key] = *t.Value
					}
				}
				instances = append(instances, ti)
			}
		}
	}
	return instances, nil
}

// restAPIARN builds the tagging ARN for a REST API in region.
func restAPIARN(region, apiID string) string {
	return fmt.Sprintf("arn:aws:apigateway:%s::/restapis/%s", region, apiID)
}
