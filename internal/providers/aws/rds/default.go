package rds

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

const metricPeriodSeconds = 86400 // one datapoint per day

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory rdsClientFactory
	now     func() time.Time
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultRDSClients, now: time.Now}
}

// NewDefaultCollectorWithFactory returns a collector whose clients come from
// f and whose clock is now. Pass stubs in tests.
func NewDefaultCollectorWithFactory(f rdsClientFactory, now func() time.Time) *DefaultCollector {
	return &DefaultCollector{factory: f, now: now}
}

// CollectIdleInstances implements Collector.
func (d *DefaultCollector) CollectIdleInstances(ctx context.Context, cfg aws.Config, thresholds map[string]float64, lookbackDays int, accountName, accountNumber, region string) ([]models.IdleRDSInstance, error) {
	clients := d.factory(cfg)

	readers, err := d.clusterReaderMembers(ctx, clients.RDS)
	if err != nil {
		return nil, err
	}

	instances, err := d.listInstances(ctx, clients.RDS)
	if err != nil {
		return nil, err
	}

	var idle []models.IdleRDSInstance
	for _, inst := range instances {
		id := aws.ToString(inst.DBInstanceIdentifier)
		if readers[id] {
			continue
		}

		isIdle, err := d.instanceIsIdle(ctx, clients.CloudWatch, id, thresholds, lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("metrics for %s: %w", id, err)
		}
		if !isIdle {
			continue
		}

		idle = append(idle, models.IdleRDSInstance{
			DBInstanceID:    id,
			DBInstanceClass: aws.ToString(inst.DBInstanceClass),
			Engine:          aws.ToString(inst.Engine),
			Region:          region,
			AccountName:     accountName,
			AccountNumber:   accountNumber,
			IdleStatus:      "No significant activity",
		})
	}
	return idle, nil
}

// CollectGP2Instances implements Collector.
func (d *DefaultCollector) CollectGP2Instances(ctx context.Context, cfg aws.Config, accountNumber, region string) ([]models.GP2Instance, error) {
	clients := d.factory(cfg)

	instances, err := d.listInstances(ctx, clients.RDS)
	if err != nil {
		return nil, err
	}

	var gp2 []models.GP2Instance
	for _, inst := range instances {
		if aws.ToString(inst.StorageType) != "gp2" {
			continue
		}
		gp2 = append(gp2, models.GP2Instance{
			AccountNumber:   accountNumber,
			DBInstanceID:    aws.ToString(inst.DBInstanceIdentifier),
			Engine:          aws.ToString(inst.Engine),
			AllocatedSizeGB: aws.ToInt32(inst.AllocatedStorage),
			DBInstanceClass: aws.ToString(inst.DBInstanceClass),
			StorageType:     aws.ToString(inst.StorageType),
			Region:          region,
		})
	}
	return gp2, nil
}

func (d *DefaultCollector) listInstances(ctx context.Context, client rdsClient) ([]rdstypes.DBInstance, error) {
	var instances []rdstypes.DBInstance
	pager := rdssvc.NewDescribeDBInstancesPaginator(client, &rdssvc.DescribeDBInstancesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBInstances page: %w", err)
		}
		instances = append(instances, page.DBInstances...)
	}
	return instances, nil
}

// clusterReaderMembers maps the instance IDs of Aurora cluster members that
// are not the writer. Readers and standbys carry no primary traffic and would
// always look idle, so they are excluded up front.
func (d *DefaultCollector) clusterReaderMembers(ctx context.Context, client rdsClient) (map[string]bool, error) {
	readers := make(map[string]bool)
	pager := rdssvc.NewDescribeDBClustersPaginator(client, &rdssvc.DescribeDBClustersInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBClusters page: %w", err)
		}
		for _, cluster := range page.DBClusters {
			for _, member := range cluster.DBClusterMembers {
				if member.DBInstanceIdentifier == nil {
					continue
				}
				if member.IsClusterWriter == nil || !*member.IsClusterWriter {
					readers[*member.DBInstanceIdentifier] = true
				}
			}
		}
	}
	return readers, nil
}

// instanceIsIdle checks every threshold metric; all must stay at or below
// their limit for the instance to count as idle.
func (d *DefaultCollector) instanceIsIdle(ctx context.Context, client metricsClient, instanceID string, thresholds map[string]float64, lookbackDays int) (bool, error) {
	end := d.now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	for metric, limit := range thresholds {
		out, err := client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
			Namespace:  aws.String("AWS/RDS"),
			MetricName: aws.String(metric),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String("DBInstanceIdentifier"), Value: aws.String(instanceID)},
			},
			StartTime:  aws.Time(start),
			EndTime:    aws.Time(end),
			Period:     aws.Int32(metricPeriodSeconds),
			Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
		})
		if err != nil {
			return false, fmt.Errorf("GetMetricStatistics %s: %w", metric, err)
		}

		for _, dp := range out.Datapoints {
			if dp.Average != nil && *dp.Average > limit {
				return false, nil
			}
		}
	}
	return true, nil
}
