// Package iam inventories IAM principals and resolves per-role service usage
// through Access Advisor.
package iam

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

// Collector gathers IAM data for one account.
type Collector interface {
	// CollectPrincipals pages through all users and roles in the account,
	// users first.
	CollectPrincipals(ctx context.Context, cfg aws.Config) ([]models.IAMPrincipal, error)

	// CollectServiceAccess runs an Access Advisor job for each of the first
	// maxRoles roles (all roles when maxRoles <= 0) and returns one entry
	// per role and service. progress, when non-nil, is called with each
	// role name before its job starts.
	CollectServiceAccess(ctx context.Context, cfg aws.Config, maxRoles int, progress func(roleName string)) ([]models.ServiceAccess, error)
}
