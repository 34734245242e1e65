// Package rds finds idle RDS instances via CloudWatch activity metrics and
// instances still on legacy gp2 storage.
package rds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Collector gathers RDS data for one profile region.
type Collector interface {
	// CollectIdleInstances returns instances whose activity metrics all
	// stayed at or below their thresholds for the lookback window. Aurora
	// cluster members that are not the writer are skipped; an instance
	// with no datapoints for a metric counts as idle on that metric.
	// accountName and accountNumber are stamped onto each result.
	CollectIdleInstances(ctx context.Context, cfg aws.Config, thresholds map[string]float64, lookbackDays int, accountName, accountNumber, region string) ([]models.IdleRDSInstance, error)

	// CollectGP2Instances returns instances whose StorageType is gp2.
	CollectGP2Instances(ctx context.Context, cfg aws.Config, accountNumber, region string) ([]models.GP2Instance, error)
}
