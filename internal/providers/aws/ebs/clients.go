package ebs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
)

// snapshotClient lists the single EC2 operation this package calls. Satisfies
// ec2.DescribeSnapshotsAPIClient for the SDK v2 paginator.
type snapshotClient interface {
	DescribeSnapshots(
		ctx context.Context,
		params *ec2svc.DescribeSnapshotsInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeSnapshotsOutput, error)
}

// snapshotClientFactory creates a snapshotClient from an aws.Config.
type snapshotClientFactory func(cfg aws.Config) snapshotClient

// newDefaultSnapshotClient is the production factory.
func newDefaultSnapshotClient(cfg aws.Config) snapshotClient {
	return ec2svc.NewFromConfig(cfg)
}
