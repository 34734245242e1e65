package elb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory elbClientFactory
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultELBClient}
}

// NewDefaultCollectorWithFactory returns a collector whose client comes
// from f. Pass a mock factory in tests.
func NewDefaultCollectorWithFactory(f elbClientFactory) *DefaultCollector {
	return &DefaultCollector{factory: f}
}

// groupHealth is the digest of one target group's health lookup.
type groupHealth struct {
	empty     bool
	unhealthy []string // reasons, one per unhealthy target
}

// CollectHealthIssues implements Collector.
func (d *DefaultCollector) CollectHealthIssues(ctx context.Context, cfg aws.Config, policy awsretry.Policy, account string) ([]models.TargetHealthIssue, error) {
	client := d.factory(cfg)

	groups, err := d.listTargetGroups(ctx, client, policy, "")
	if err != nil {
		return nil, err
	}

	// Health is fetched once per group and reused for the load balancer
	// pass below.
	healthByARN := make(map[string]groupHealth, len(groups))

	var issues []models.TargetHealthIssue
	for _, tg := range groups {
		name := aws.ToString(tg.TargetGroupName)
		health, err := d.targetGroupHealth(ctx, client, policy, aws.ToString(tg.TargetGroupArn))
		if err != nil {
			return nil, fmt.Errorf("target health for %s: %w", name, err)
		}
		healthByARN[aws.ToString(tg.TargetGroupArn)] = health

		switch {
		case health.empty:
			issues = append(issues, models.TargetHealthIssue{
				Resource: "Target Group", Name: name, Status: "No Targets", Account: account,
			})
		default:
			for _, reason := range health.unhealthy {
				issues = append(issues, models.TargetHealthIssue{
					Resource: "Target Group", Name: name, Status: reason, Account: account,
				})
			}
		}
	}

	balancerIssues, err := d.loadBalancerIssues(ctx, client, policy, account, healthByARN)
	if err != nil {
		return nil, err
	}
	return append(issues, balancerIssues...), nil
}

// loadBalancerIssues checks every load balancer's attached target groups.
func (d *DefaultCollector) loadBalancerIssues(ctx context.Context, client elbClient, policy awsretry.Policy, account string, healthByARN map[string]groupHealth) ([]models.TargetHealthIssue, error) {
	var issues []models.TargetHealthIssue

	pager := elbv2.NewDescribeLoadBalancersPaginator(client, &elbv2.DescribeLoadBalancersInput{})
	for pager.HasMorePages() {
		page, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*elbv2.DescribeLoadBalancersOutput, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeLoadBalancers page: %w", err)
		}

		for _, lb := range page.LoadBalancers {
			lbName := aws.ToString(lb.LoadBalancerName)

			attached, err := d.listTargetGroups(ctx, client, policy, aws.ToString(lb.LoadBalancerArn))
			if err != nil {
				return nil, fmt.Errorf("target groups for %s: %w", lbName, err)
			}
			if len(attached) == 0 {
				issues = append(issues, models.TargetHealthIssue{
					Resource: "Load Balancer", Name: lbName, Status: "No Target Groups", Account: account,
				})
				continue
			}

			for _, tg := range attached {
				tgName := aws.ToString(tg.TargetGroupName)
				health, ok := healthByARN[aws.ToString(tg.TargetGroupArn)]
				if !ok {
					health, err = d.targetGroupHealth(ctx, client, policy, aws.ToString(tg.TargetGroupArn))
					if err != nil {
						return nil, fmt.Errorf("target health for %s: %w", tgName, err)
					}
				}
				switch {
				case health.empty:
					issues = append(issues, models.TargetHealthIssue{
						Resource: "Load Balancer", Name: lbName,
						Status:  fmt.Sprintf("Empty Target Group: %s", tgName),
						Account: account,
					})
				case len(health.unhealthy) > 0:
					issues = append(issues, models.TargetHealthIssue{
						Resource: "Load Balancer", Name: lbName,
						Status:  fmt.Sprintf("Associated Target Group: %s has Unhealthy target(s)", tgName),
						Account: account,
					})
				}
			}
		}
	}
	return issues, nil
}

// listTargetGroups pages through target groups, scoped to loadBalancerARN
// when non-empty.
func (d *DefaultCollector) listTargetGroups(ctx context.Context, client elbClient, policy awsretry.Policy, loadBalancerARN string) ([]elbtypes.TargetGroup, error) {
	input := &elbv2.DescribeTargetGroupsInput{}
	if loadBalancerARN != "" {
		input.LoadBalancerArn = aws.String(loadBalancerARN)
	}

	var groups []elbtypes.TargetGroup
	pager := elbv2.NewDescribeTargetGroupsPaginator(client, input)
	for pager.HasMorePages() {
		page, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*elbv2.DescribeTargetGroupsOutput, error) {
			return pager.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeTargetGroups page: %w", err)
		}
		groups = append(groups, page.TargetGroups...)
	}
	return groups, nil
}

// targetGroupHealth fetches and digests one group's target health.
func (d *DefaultCollector) targetGroupHealth(ctx context.Context, client elbClient, policy awsretry.Policy, targetGroupARN string) (groupHealth, error) {
	out, err := awsretry.Do(ctx, policy, func(ctx context.Context) (*elbv2.DescribeTargetHealthOutput, error) {
		return client.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
			TargetGroupArn: aws.String(targetGroupARN),
		})
	})
	if err != nil {
		return groupHealth{}, err
	}

	health := groupHealth{empty: len(out.TargetHealthDescriptions) == 0}
	for _, desc := range out.TargetHealthDescriptions {
		if desc.TargetHealth == nil || desc.TargetHealth.State == elbtypes.TargetHealthStateEnumHealthy {
			continue
		}
		reason := aws.ToString(desc.TargetHealth.Description)
		if reason == "" {
			reason = string(desc.TargetHealth.State)
		}
		health.unhealthy = append(health.unhealthy, reason)
	}
	return health, nil
}
