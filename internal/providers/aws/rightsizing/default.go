package rightsizing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/computeoptimizer"
	cotypes "github.com/aws/aws-sdk-go-v2/service/computeoptimizer/types"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory rightsizingClientFactory
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultRightsizingClients}
}

// NewDefaultCollectorWithFactory returns a collector whose clients come
// from f. Pass a mock factory in tests.
func NewDefaultCollectorWithFactory(f rightsizingClientFactory) *DefaultCollector {
	return &DefaultCollector{factory: f}
}

type taggedInstance struct {
	instanceID string
	volumeIDs  []string
}

// CollectCandidates implements Collector.
func (d *DefaultCollector) CollectCandidates(ctx context.Context, cfg aws.Config, policy awsretry.Policy, profile, accountID, region, tagKey string) ([]models.RightsizingCandidate, error) {
	clients := d.factory(cfg)

	instances, err := d.listTaggedInstances(ctx, clients.EC2, policy, tagKey)
	if err != nil {
		return nil, err
	}

	var candidates []models.RightsizingCandidate
	for _, inst := range instances {
		needsInstance, err := d.instanceNeedsRightsizing(ctx, clients.Optimizer, policy, accountID, region, inst.instanceID)
		if err != nil {
			return nil, err
		}
		if !needsInstance {
			continue
		}

		volumes, err := d.volumesNeedingRightsizing(ctx, clients.Optimizer, policy, accountID, region, inst.volumeIDs)
		if err != nil {
			return nil, err
		}
		if len(volumes) == 0 {
			continue
		}

		candidates = append(candidates, models.RightsizingCandidate{
			Profile:    profile,
			AccountID:  accountID,
			Region:     region,
			InstanceID: inst.instanceID,
			VolumeIDs:  volumes,
		})
	}
	return candidates, nil
}

// listTaggedInstances pages through instances carrying tagKey and collects
// each one's attached EBS volume IDs.
func (d *DefaultCollector) listTaggedInstances(ctx context.Context, client rightsizingEC2Client, policy awsretry.Policy, tagKey string) ([]taggedInstance, error) {
	paginator := ec2svc.NewDescribeInstancesPaginator(client, &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag-key"), Values: []string{tagKey}},
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	})

	var instances []taggedInstance
	for paginator.HasMorePages() {
		page, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*ec2svc.DescribeInstancesOutput, error) {
			return paginator.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				ti := taggedInstance{instanceID: aws.ToString(inst.InstanceId)}
				for _, bdm := range inst.BlockDeviceMappings {
					if bdm.Ebs != nil && bdm.Ebs.VolumeId != nil {
						ti.volumeIDs = append(ti.volumeIDs, *bdm.Ebs.VolumeId)
					}
				}
				instances = append(instances, ti)
			}
		}
	}
	return instances, nil
}

// instanceNeedsRightsizing reports whether Compute Optimizer has a
// non-Optimized finding for the instance.
func (d *DefaultCollector) instanceNeedsRightsizing(ctx context.Context, client optimizerClient, policy awsretry.Policy, accountID, region, instanceID string) (bool, error) {
	arn := instanceARN(region, accountID, instanceID)
	out, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*computeoptimizer.GetEC2InstanceRecommendationsOutput, error) {
		return client.GetEC2InstanceRecommendations(ctx, &computeoptimizer.GetEC2InstanceRecommendationsInput{
			InstanceArns: []string{arn},
		})
	})
	if err != nil {
		return false, fmt.Errorf("GetEC2InstanceRecommendations %s: %w", instanceID, err)
	}

	for _, rec := range out.InstanceRecommendations {
		if rec.Finding != cotypes.FindingOptimized {
			return true, nil
		}
	}
	return false, nil
}

// volumesNeedingRightsizing returns the subset of volumeIDs where Compute
// Optimizer recommends a volume type different from the current one.
func (d *DefaultCollector) volumesNeedingRightsizing(ctx context.Context, client optimizerClient, policy awsretry.Policy, accountID, region string, volumeIDs []string) ([]string, error) {
	if len(volumeIDs) == 0 {
		return nil, nil
	}

	arns := make([]string, len(volumeIDs))
	arnToID := make(map[string]string, len(volumeIDs))
	for i, id := range volumeIDs {
		arn := volumeARN(region, accountID, id)
		arns[i] = arn
		arnToID[arn] = id
	}

	out, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*computeoptimizer.GetEBSVolumeRecommendationsOutput, error) {
		return client.GetEBSVolumeRecommendations(ctx, &computeoptimizer.GetEBSVolumeRecommendationsInput{
			VolumeArns: arns,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("GetEBSVolumeRecommendations: %w", err)
	}

	var flagged []string
	for _, rec := range out.VolumeRecommendations {
		if rec.CurrentConfiguration == nil {
			continue
		}
		current := aws.ToString(rec.CurrentConfiguration.VolumeType)
		for _, opt := range rec.VolumeRecommendationOptions {
			if opt.Configuration == nil {
				continue
			}
			if aws.ToString(opt.Configuration.VolumeType) != current {
				if id, ok := arnToID[aws.ToString(rec.VolumeArn)]; ok {
					flagged = append(flagged, id)
				}
				break
			}
		}
	}
	return flagged, nil
}

func instanceARN(region, accountID, instanceID string) string {
	return fmt.Sprintf("arn:aws:ec2:%s:%s:instance/%s", region, accountID, instanceID)
}

func volumeARN(region, accountID, volumeID string) string {
	return fmt.Sprintf("arn:aws:ec2:%s:%s:volume/%s", region, accountID, volumeID)
}
