package rds

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
)

// rdsClient covers instance and cluster enumeration. Both methods satisfy
// their SDK v2 paginator interfaces.
type rdsClient interface {
	DescribeDBInstances(
		ctx context.Context,
		params *rdssvc.DescribeDBInstancesInput,
		optFns ...func(*rdssvc.Options),
	) (*rdssvc.DescribeDBInstancesOutput, error)
	DescribeDBClusters(
		ctx context.Context,
		params *rdssvc.DescribeDBClustersInput,
		optFns ...func(*rdssvc.Options),
	) (*rdssvc.DescribeDBClustersOutput, error)
}

// metricsClient covers the single CloudWatch call used for idle detection.
type metricsClient interface {
	GetMetricStatistics(
		ctx context.Context,
		params *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// rdsClients holds the service clients for one collection run.
type rdsClients struct {
	RDS        rdsClient
	CloudWatch metricsClient
}

// rdsClientFactory creates an rdsClients from an aws.Config.
type rdsClientFactory func(cfg aws.Config) *rdsClients

// newDefaultRDSClients is the production factory.
func newDefaultRDSClients(cfg aws.Config) *rdsClients {
	return &rdsClients{
		RDS:        rdssvc.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}
}
