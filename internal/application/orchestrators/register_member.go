package orchestrators

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/domain/member"

	"github.com/google/uuid"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	Save(ctx context.Context, m member.Member) error
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByEmail(ctx context.Context, email string) (member.Member, error)
}

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	GymID  string
	Email  string
	Name   string
	Phone  string
	PlanID string
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	MemberStore MemberStore
	Now         func() time.Time
}

// ExecuteRegisterMember coordinates member registration.
// PRE: Valid email, non-empty name
// POST: Member created with ID, Status=active, JoinedAt set
// INVARIANT: Email must be unique (enforced by store)
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (string, error) {
	// Validate input
	if input.Name == "" {
		return "", errors.New("name cannot be empty")
	}
	if input.Email == "" {
		return "", errors.New("email cannot be empty")
	}
	if input.GymID == "" {
		return "", errors.New("gym ID cannot be empty")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	// Create member with generated ID
	m := member.Member{
		ID:       uuid.New().String(),
		GymID:    input.GymID,
		Email:    input.Email,
		Name:     input.Name,
		Phone:    input.Phone,
		PlanID:   input.PlanID,
		Status:   member.StatusActive,
		JoinedAt: now(),
	}

	// Validate domain rules
	if err := m.Validate(); err != nil {
		return "", err
	}

	// Save to store
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return "", err
	}

	return m.ID, nil
}
