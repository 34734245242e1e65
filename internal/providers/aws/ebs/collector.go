// Package ebs finds self-owned EBS snapshots older than a cutoff age.
package ebs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Collector gathers aged snapshots for one account region.
type Collector interface {
	// CollectOldSnapshots pages through snapshots owned by the calling
	// account in the region cfg is scoped to and returns those created
	// before the cutoff, oldest first within page order. accountName and
	// region are stamped onto each returned snapshot.
	CollectOldSnapshots(ctx context.Context, cfg aws.Config, accountName, region string, minAgeDays int) ([]models.EBSSnapshot, error)
}
