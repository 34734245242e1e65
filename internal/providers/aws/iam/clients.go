package iam

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
)

// iamClient lists the IAM operations this package calls. The ListUsers and
// ListRoles methods satisfy the SDK v2 paginator interfaces.
type iamClient interface {
	ListUsers(
		ctx context.Context,
		params *iamsvc.ListUsersInput,
		optFns ...func(*iamsvc.Options),
	) (*iamsvc.ListUsersOutput, error)
	ListRoles(
		ctx context.Context,
		params *iamsvc.ListRolesInput,
		optFns ...func(*iamsvc.Options),
	) (*iamsvc.ListRolesOutput, error)
	GenerateServiceLastAccessedDetails(
		ctx context.Context,
		params *iamsvc.GenerateServiceLastAccessedDetailsInput,
		optFns ...func(*iamsvc.Options),
	) (*iamsvc.GenerateServiceLastAccessedDetailsOutput, error)
	GetServiceLastAccessedDetails(
		ctx context.Context,
		params *iamsvc.GetServiceLastAccessedDetailsInput,
		optFns ...func(*iamsvc.Options),
	) (*iamsvc.GetServiceLastAccessedDetailsOutput, error)
}

// iamClientFactory creates an iamClient from an aws.Config.
type iamClientFactory func(cfg aws.Config) iamClient

// newDefaultIAMClient is the production factory.
func newDefaultIAMClient(cfg aws.Config) iamClient {
	return iamsvc.NewFromConfig(cfg)
}
