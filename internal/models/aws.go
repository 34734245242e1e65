// Package models holds the plain data structures collected from AWS.
// Collectors fill them; the command layer flattens them into report rows.
package models

import "time"

// APIGateway is one REST API with its resolved tags.
type APIGateway struct {
	ID          string
	Name        string
	Description string
	CreatedDate time.Time
	ResourceARN string
	Tags        map[string]string
}

// TaggedInstance is an EC2 instance reduced to its identifier and tag set,
// for the per-profile tag inventory.
type TaggedInstance struct {
	InstanceID string
	Tags       map[string]string
}

// EBSSnapshot is a self-owned snapshot past the configured age cutoff.
type EBSSnapshot struct {
	SnapshotID  string
	AccountName string
	Region      string
	// CreatorARN is taken from the snapshot description, which is where
	// creation tooling records the caller; "Unknown" when absent.
	CreatorARN string
	StartTime  time.Time
	AgeDays    int
}

// RightsizingCandidate is a Karpenter-provisioned instance where both the
// instance and at least one attached volume have rightsizing recommendations.
type RightsizingCandidate struct {
	Profile    string
	AccountID  string
	Region     string
	InstanceID string
	VolumeIDs  []string
}

// IAMPrincipal is one IAM user or role.
type IAMPrincipal struct {
	PrincipalID string
	Type        string // "User" or "Role"
	Name        string
	ARN         string
}

// ServiceAccess is one Access Advisor entry: when a role last touched a
// service. LastAuthenticated is nil when the service was never used.
type ServiceAccess struct {
	RoleName          string
	ServiceName       string
	LastAuthenticated *time.Time
}

// IdleRDSInstance is an RDS instance whose activity metrics all stayed under
// the idle thresholds for the lookback window.
type IdleRDSInstance struct {
	DBInstanceID    string
	DBInstanceClass string
	Engine          string
	Region          string
	AccountName     string
	AccountNumber   string
	IdleStatus      string
}

// GP2Instance is an RDS instance still on legacy gp2 storage.
type GP2Instance struct {
	AccountNumber   string
	DBInstanceID    string
	Engine          string
	AllocatedSizeGB int32
	DBInstanceClass string
	StorageType     string
	Region          string
}

// TargetHealthIssue is one load balancer or target group problem: unhealthy
// targets, empty target groups, or balancers without target groups.
type TargetHealthIssue struct {
	Resource string // "Target Group" or "Load Balancer"
	Name     string
	Status   string
	Account  string
}

// CostComparison is one service's spend compared across two periods.
type CostComparison struct {
	Service       string
	CurrentCost   float64
	PreviousCost  float64
	Difference    float64
	PercentChange float64
}
