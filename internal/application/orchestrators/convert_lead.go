package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymdesk/internal/domain/lead"
	"gymdesk/internal/domain/member"
)

// LeadStoreForConvert defines the store interface needed by ConvertLead.
type LeadStoreForConvert interface {
	GetByID(ctx context.Context, id string) (lead.Lead, error)
	Save(ctx context.Context, l lead.Lead) error
}

// MemberStoreForConvert defines the store interface needed by ConvertLead.
type MemberStoreForConvert interface {
	Save(ctx context.Context, m member.Member) error
	GetByEmail(ctx context.Context, email string) (member.Member, error)
}

// ConvertLeadInput carries input for the convert-lead orchestrator.
type ConvertLeadInput struct {
	LeadID string
	PlanID string
	// Email overrides the lead's email when the lead was captured with
	// only a phone number.
	Email string
}

// ConvertLeadDeps holds dependencies for ConvertLead.
type ConvertLeadDeps struct {
	LeadStore   LeadStoreForConvert
	MemberStore MemberStoreForConvert
	GenerateID  func() string
	Now         func() time.Time
}

var (
	ErrLeadAlreadyClosed = errors.New("lead is already converted or lost")
	ErrMemberEmailTaken  = errors.New("a member with this email already exists")
)

// ExecuteConvertLead turns a pipeline lead into an active member. The lead
// is marked converted and the new member keeps a link back to it.
// PRE: LeadID names an open lead; the resulting email is not already a member
// POST: Member created with Status=active; lead status is converted
// INVARIANT: A closed lead is never converted again
func ExecuteConvertLead(ctx context.Context, input ConvertLeadInput, deps ConvertLeadDeps) (string, error) {
	if input.LeadID == "" {
		return "", errors.New("lead ID is required")
	}

	l, err := deps.LeadStore.GetByID(ctx, input.LeadID)
	if err != nil {
		return "", err
	}
	if l.IsClosed() {
		return "", ErrLeadAlreadyClosed
	}

	email := l.Email
	if input.Email != "" {
		email = input.Email
	}
	if email == "" {
		return "", errors.New("an email is required to create the member")
	}

	if _, err := deps.MemberStore.GetByEmail(ctx, email); err == nil {
		return "", ErrMemberEmailTaken
	}

	now := deps.Now()
	m := member.Member{
		ID:       deps.GenerateID(),
		GymID:    l.GymID,
		LeadID:   l.ID,
		PlanID:   input.PlanID,
		Email:    email,
		Name:     l.Name,
		Phone:    l.Phone,
		Status:   member.StatusActive,
		JoinedAt: now,
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return "", err
	}

	// The member exists now; a failure to close the lead leaves it open
	// for a retry rather than losing the member.
	if err := l.Advance(lead.StatusConverted, now); err != nil {
		return "", err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		return "", err
	}

	slog.Info("lead_event", "event", "lead_converted", "lead_id", l.ID, "member_id", m.ID)
	return m.ID, nil
}
