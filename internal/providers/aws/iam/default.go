package iam

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/pankaj-dahiya-devops/opsreport/internal/models"
)

const defaultPollInterval = 2 * time.Second

// DefaultCollector is the production Collector backed by the real AWS SDK.
type DefaultCollector struct {
	factory      iamClientFactory
	pollInterval time.Duration
}

// NewDefaultCollector returns a collector using real SDK clients.
func NewDefaultCollector() *DefaultCollector {
	return &DefaultCollector{factory: newDefaultIAMClient, pollInterval: defaultPollInterval}
}

// NewDefaultCollectorWithFactory returns a collector whose client comes from
// f, polling Access Advisor jobs every pollInterval. Pass stubs and a short
// interval in tests.
func NewDefaultCollectorWithFactory(f iamClientFactory, pollInterval time.Duration) *DefaultCollector {
	return &DefaultCollector{factory: f, pollInterval: pollInterval}
}

// CollectPrincipals implements Collector.
func (d *DefaultCollector) CollectPrincipals(ctx context.Context, cfg aws.Config) ([]models.IAMPrincipal, error) {
	client := d.factory(cfg)

	var principals []models.IAMPrincipal

	userPager := iamsvc.NewListUsersPaginator(client, &iamsvc.ListUsersInput{})
	for userPager.HasMorePages() {
		page, err := userPager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListUsers page: %w", err)
		}
		for _, u := range page.Users {
			principals = append(principals, models.IAMPrincipal{
				PrincipalID: aws.ToString(u.UserId),
				Type:        "User",
				Name:        aws.ToString(u.UserName),
				ARN:         aws.ToString(u.Arn),
			})
		}
	}

	rolePager := iamsvc.NewListRolesPaginator(client, &iamsvc.ListRolesInput{})
	for rolePager.HasMorePages() {
		page, err := rolePager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListRoles page: %w", err)
		}
		for _, r := range page.Roles {
			principals = append(principals, models.IAMPrincipal{
				PrincipalID: aws.ToString(r.RoleId),
				Type:        "Role",
				Name:        aws.ToString(r.RoleName),
				ARN:         aws.ToString(r.Arn),
			})
		}
	}

	return principals, nil
}

// CollectServiceAccess implements Collector.
func (d *DefaultCollector) CollectServiceAccess(ctx context.Context, cfg aws.Config, maxRoles int, progress func(roleName string)) ([]models.ServiceAccess, error) {
	client := d.factory(cfg)

	roles, err := d.listRoles(ctx, client, maxRoles)
	if err != nil {
		return nil, err
	}

	var access []models.ServiceAccess
	for _, role := range roles {
		roleName := aws.ToString(role.RoleName)
		if progress != nil {
			progress(roleName)
		}

		entries, err := d.serviceAccessForRole(ctx, client, role)
		if err != nil {
			return nil, fmt.Errorf("access details for role %s: %w", roleName, err)
		}
		access = append(access, entries...)
	}
	return access, nil
}

// listRoles pages through roles, stopping at maxRoles when positive.
func (d *DefaultCollector) listRoles(ctx context.Context, client iamClient, maxRoles int) ([]iamtypes.Role, error) {
	var roles []iamtypes.Role
	pager := iamsvc.NewListRolesPaginator(client, &iamsvc.ListRolesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListRoles page: %w", err)
		}
		for _, r := range page.Roles {
			roles = append(roles, r)
			if maxRoles > 0 && len(roles) == maxRoles {
				return roles, nil
			}
		}
	}
	return roles, nil
}

// serviceAccessForRole starts an Access Advisor job for role and polls it to
// completion.
func (d *DefaultCollector) serviceAccessForRole(ctx context.Context, client iamClient, role iamtypes.Role) ([]models.ServiceAccess, error) {
	gen, err := client.GenerateServiceLastAccessedDetails(ctx, &iamsvc.GenerateServiceLastAccessedDetailsInput{
		Arn: role.Arn,
	})
	if err != nil {
		return nil, fmt.Errorf("GenerateServiceLastAccessedDetails: %w", err)
	}

	roleName := aws.ToString(role.RoleName)
	for {
		out, err := client.GetServiceLastAccessedDetails(ctx, &iamsvc.GetServiceLastAccessedDetailsInput{
			JobId: gen.JobId,
		})
		if err != nil {
			return nil, fmt.Errorf("GetServiceLastAccessedDetails: %w", err)
		}

		switch out.JobStatus {
		case iamtypes.JobStatusTypeCompleted:
			access := make([]models.ServiceAccess, 0, len(out.ServicesLastAccessed))
			for _, svc := range out.ServicesLastAccessed {
				access = append(access, models.ServiceAccess{
					RoleName:          roleName,
					ServiceName:       aws.ToString(svc.ServiceName),
					LastAuthenticated: svc.LastAuthenticated,
				})
			}
			return access, nil
		case iamtypes.JobStatusTypeFailed:
			return nil, fmt.Errorf("access advisor job for role %s failed", roleName)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}
