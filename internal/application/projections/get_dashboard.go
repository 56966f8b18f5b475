package projections

import (
	"context"

	memberStore "gymdesk/internal/adapters/storage/member"
	"gymdesk/internal/domain/account"
	domainMember "gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
)

// DashboardMemberStore defines the member store interface needed by the
// dashboard projection.
type DashboardMemberStore interface {
	GetByAccountID(ctx context.Context, accountID string) (domainMember.Member, error)
	Count(ctx context.Context, filter memberStore.ListFilter) (int, error)
}

// DashboardOutboxStore defines the outbox store interface needed by the
// dashboard projection.
type DashboardOutboxStore interface {
	ListFailed(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	GymID     string
	AccountID string
	Role      string // admin, trainer, member
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	MemberStore     DashboardMemberStore
	LeadStore       PipelineLeadStore
	OutboxStore     DashboardOutboxStore // optional: nil skips outbox health
	TrainingLogDeps GetTrainingLogDeps
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Role string

	// Staff
	ActiveMembers   int
	InactiveMembers int
	LeadPipeline    *LeadPipelineResult
	FailedOutbox    int

	// Member
	TrainingLog *TrainingLogResult
}

// QueryGetDashboard aggregates dashboard data based on the user's role.
// Partial failures degrade the panel rather than erroring the whole page.
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	result := DashboardResult{Role: query.Role}

	switch query.Role {
	case account.RoleAdmin, account.RoleTrainer:
		if n, err := deps.MemberStore.Count(ctx, memberStore.ListFilter{
			GymID: query.GymID, Status: domainMember.StatusActive,
		}); err == nil {
			result.ActiveMembers = n
		}
		if n, err := deps.MemberStore.Count(ctx, memberStore.ListFilter{
			GymID: query.GymID, Status: domainMember.StatusInactive,
		}); err == nil {
			result.InactiveMembers = n
		}
		if pipeline, err := QueryGetLeadPipeline(ctx,
			GetLeadPipelineQuery{GymID: query.GymID, RecentLimit: 5},
			GetLeadPipelineDeps{LeadStore: deps.LeadStore}); err == nil {
			result.LeadPipeline = &pipeline
		}
		if query.Role == account.RoleAdmin && deps.OutboxStore != nil {
			if failed, err := deps.OutboxStore.ListFailed(ctx, 100); err == nil {
				result.FailedOutbox = len(failed)
			}
		}

	case account.RoleMember:
		m, err := deps.MemberStore.GetByAccountID(ctx, query.AccountID)
		if err != nil {
			return result, nil
		}
		if log, err := QueryGetTrainingLog(ctx,
			GetTrainingLogQuery{MemberID: m.ID, Limit: 10},
			deps.TrainingLogDeps); err == nil {
			result.TrainingLog = &log
		}
	}

	return result, nil
}
