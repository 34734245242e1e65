// Package elb reports load balancer target health problems: unhealthy
// targets, empty target groups, and balancers without target groups.
package elb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/awsretry"
	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Collector gathers target health issues for one account.
type Collector interface {
	// CollectHealthIssues walks every target group and load balancer in
	// the region cfg is scoped to. Target groups report "No Targets" or
	// the unhealthy target's reason; load balancers report missing target
	// groups, empty attached groups, or attached groups with unhealthy
	// targets. Every AWS call goes through the retry policy. account is
	// stamped onto each issue.
	CollectHealthIssues(ctx context.Context, cfg aws.Config, policy awsretry.Policy, account string) ([]models.TargetHealthIssue, error)
}
