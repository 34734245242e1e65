package rds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
)

type stubRDSClient struct {
	instances []rdstypes.DBInstance
	clusters  []rdstypes.DBCluster
	err       error
}

func (s *stubRDSClient) DescribeDBInstances(context.Context, *rdssvc.DescribeDBInstancesInput, ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rdssvc.DescribeDBInstancesOutput{DBInstances: s.instances}, nil
}

func (s *stubRDSClient) DescribeDBClusters(context.Context, *rdssvc.DescribeDBClustersInput, ...func(*rdssvc.Options)) (*rdssvc.DescribeDBClustersOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rdssvc.DescribeDBClustersOutput{DBClusters: s.clusters}, nil
}

type stubMetricsClient struct {
	// averages maps "instanceID/metricName" to datapoint averages.
	averages map[string][]float64
	err      error
	windows  []windowCheck
}

type windowCheck struct {
	start, end time.Time
	period     int32
}

func (s *stubMetricsClient) GetMetricStatistics(_ context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.windows = append(s.windows, windowCheck{
		start:  aws.ToTime(in.StartTime),
		end:    aws.ToTime(in.EndTime),
		period: aws.ToInt32(in.Period),
	})

	key := in.Dimensions[0].Value
	out := &cloudwatch.GetMetricStatisticsOutput{}
	for _, avg := range s.averages[aws.ToString(key)+"/"+aws.ToString(in.MetricName)] {
		out.Datapoints = append(out.Datapoints, cwtypes.Datapoint{Average: aws.Float64(avg)})
	}
	return out, nil
}

func dbInstance(id, class, engine, storage string, allocated int32) rdstypes.DBInstance {
	return rdstypes.DBInstance{
		DBInstanceIdentifier: aws.String(id),
		DBInstanceClass:      aws.String(class),
		Engine:               aws.String(engine),
		StorageType:          aws.String(storage),
		AllocatedStorage:     aws.Int32(allocated),
	}
}

func testThresholds() map[string]float64 {
	return map[string]float64{
		"DatabaseConnections": 1,
		"CPUUtilization":      5,
	}
}

func TestCollectIdleInstances(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("flags quiet instances and skips busy ones", func(t *testing.T) {
		rdsStub := &stubRDSClient{instances: []rdstypes.DBInstance{
			dbInstance("quiet-db", "db.t3.micro", "postgres", "gp3", 20),
			dbInstance("busy-db", "db.r5.large", "mysql", "gp3", 100),
			dbInstance("no-data-db", "db.t3.small", "postgres", "gp3", 20),
		}}
		metrics := &stubMetricsClient{averages: map[string][]float64{
			"quiet-db/DatabaseConnections": {0, 1, 0.5},
			"quiet-db/CPUUtilization":      {2, 3},
			"busy-db/DatabaseConnections":  {40, 35},
			"busy-db/CPUUtilization":       {60},
		}}

		c := NewDefaultCollectorWithFactory(func(aws.Config) *rdsClients {
			return &rdsClients{RDS: rdsStub, CloudWatch: metrics}
		}, clock)

		got, err := c.CollectIdleInstances(context.Background(), aws.Config{}, testThresholds(), 30, "prod", "123456789012", "eu-central-1")
		if err != nil {
			t.Fatalf("CollectIdleInstances: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d idle instances; want 2: %+v", len(got), got)
		}
		if got[0].DBInstanceID != "quiet-db" || got[0].IdleStatus != "No significant activity" {
			t.Errorf("got[0] = %+v", got[0])
		}
		if got[0].AccountName != "prod" || got[0].AccountNumber != "123456789012" || got[0].Region != "eu-central-1" {
			t.Errorf("got[0] metadata = %+v", got[0])
		}
		if got[1].DBInstanceID != "no-data-db" {
			t.Errorf("got[1] = %+v; want no-data-db (no datapoints counts as idle)", got[1])
		}

		w := metrics.windows[0]
		if w.period != 86400 {
			t.Errorf("period = %d; want 86400", w.period)
		}
		if want := now.AddDate(0, 0, -30); !w.start.Equal(want) {
			t.Errorf("start = %v; want %v", w.start, want)
		}
	})

	t.Run("skips aurora reader members", func(t *testing.T) {
		rdsStub := &stubRDSClient{
			instances: []rdstypes.DBInstance{
				dbInstance("writer-db", "db.r5.large", "aurora-postgresql", "aurora", 1),
				dbInstance("reader-db", "db.r5.large", "aurora-postgresql", "aurora", 1),
			},
			clusters: []rdstypes.DBCluster{{
				DBClusterMembers: []rdstypes.DBClusterMember{
					{DBInstanceIdentifier: aws.String("writer-db"), IsClusterWriter: aws.Bool(true)},
					{DBInstanceIdentifier: aws.String("reader-db"), IsClusterWriter: aws.Bool(false)},
				},
			}},
		}
		metrics := &stubMetricsClient{averages: map[string][]float64{}}

		c := NewDefaultCollectorWithFactory(func(aws.Config) *rdsClients {
			return &rdsClients{RDS: rdsStub, CloudWatch: metrics}
		}, clock)

		got, err := c.CollectIdleInstances(context.Background(), aws.Config{}, testThresholds(), 30, "prod", "123456789012", "eu-central-1")
		if err != nil {
			t.Fatalf("CollectIdleInstances: %v", err)
		}
		if len(got) != 1 || got[0].DBInstanceID != "writer-db" {
			t.Errorf("got = %+v; want only writer-db", got)
		}
	})

	t.Run("metrics failure propagates", func(t *testing.T) {
		rdsStub := &stubRDSClient{instances: []rdstypes.DBInstance{dbInstance("db", "db.t3.micro", "postgres", "gp3", 20)}}
		metrics := &stubMetricsClient{err: errors.New("Throttling")}
		c := NewDefaultCollectorWithFactory(func(aws.Config) *rdsClients {
			return &rdsClients{RDS: rdsStub, CloudWatch: metrics}
		}, clock)
		if _, err := c.CollectIdleInstances(context.Background(), aws.Config{}, testThresholds(), 30, "prod", "123", "us-east-1"); err == nil {
			t.Fatal("want error, got nil")
		}
	})
}

func TestCollectGP2Instances(t *testing.T) {
	rdsStub := &stubRDSClient{instances: []rdstypes.DBInstance{
		dbInstance("legacy-db", "db.m5.large", "mysql", "gp2", 500),
		dbInstance("modern-db", "db.m5.large", "mysql", "gp3", 500),
	}}

	c := NewDefaultCollectorWithFactory(func(aws.Config) *rdsClients {
		return &rdsClients{RDS: rdsStub}
	}, time.Now)

	got, err := c.CollectGP2Instances(context.Background(), aws.Config{}, "123456789012", "us-east-1")
	if err != nil {
		t.Fatalf("CollectGP2Instances: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d instances; want 1", len(got))
	}
	g := got[0]
	if g.DBInstanceID != "legacy-db" || g.StorageType != "gp2" || g.AllocatedSizeGB != 500 {
		t.Errorf("got[0] = %+v", g)
	}
	if g.AccountNumber != "123456789012" || g.Region != "us-east-1" {
		t.Errorf("got[0] metadata = %+v", g)
	}
}
