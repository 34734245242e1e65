package ebs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory snapshotClientFactory
	now     func() time.Time
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultSnapshotClient, now: time.Now}
}

// NewDefaultCollectorWithFactory returns a collector whose client comes from
// f and whose clock is now. Pass stubs in tests.
func NewDefaultCollectorWithFactory(f snapshotClientFactory, now func() time.Time) *DefaultCollector {
	return &DefaultCollector{factory: f, now: now}
}

// CollectOldSnapshots implements Collector.
func (d *DefaultCollector) CollectOldSnapshots(ctx context.Context, cfg aws.Config, accountName, region string, minAgeDays int) ([]models.EBSSnapshot, error) {
	client := d.factory(cfg)
	cutoff := d.now().UTC().AddDate(0, 0, -minAgeDays)

	paginator := ec2svc.NewDescribeSnapshotsPaginator(client, &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	var old []models.EBSSnapshot
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeSnapshots page in %s: %w", region, err)
		}
		for _, snap := range page.Snapshots {
			if snap.StartTime == nil || !snap.StartTime.Before(cutoff) {
				continue
			}
			creator := "Unknown"
			if desc := aws.ToString(snap.Description); desc != "" {
				creator = desc
			}
			old = append(old, models.EBSSnapshot{
				SnapshotID:  aws.ToString(snap.SnapshotId),
				AccountName: accountName,
				Region:      region,
				CreatorARN:  creator,
				StartTime:   *snap.StartTime,
				AgeDays:     int(d.now().UTC().Sub(*snap.StartTime).Hours() / 24),
			})
		}
	}
	return old, nil
}
