package projections

import (
	"context"

	memberStore "gymdesk/internal/adapters/storage/member"
	domainMember "gymdesk/internal/domain/member"
	domainMembership "gymdesk/internal/domain/membership"
)

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domainMember.Member, error)
	List(ctx context.Context, filter memberStore.ListFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter memberStore.ListFilter) (int, error)
}

// MembershipStore interface for membership plan queries.
type MembershipStore interface {
	List(ctx context.Context, gymID string, includeArchived bool) ([]domainMembership.Plan, error)
}
