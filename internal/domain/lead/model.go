package lead

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxNoteLength = 2000
)

// Pipeline statuses, forward-only.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusTrial     = "trial"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

// Lead sources.
const (
	SourceWalkIn   = "walk_in"
	SourceReferral = "referral"
	SourceWebsite  = "website"
	SourceSocial   = "social"
	SourceOther    = "other"
)

// ValidStatuses contains all valid pipeline statuses.
var ValidStatuses = []string{StatusNew, StatusContacted, StatusTrial, StatusConverted, StatusLost}

// ValidSources contains all valid lead sources.
var ValidSources = []string{SourceWalkIn, SourceReferral, SourceWebsite, SourceSocial, SourceOther}

// Domain errors
var (
	ErrEmptyName          = errors.New("lead name cannot be empty")
	ErrNoContact          = errors.New("lead needs an email or a phone number")
	ErrInvalidStatus      = errors.New("status must be one of: new, contacted, trial, converted, lost")
	ErrInvalidSource      = errors.New("source must be one of: walk_in, referral, website, social, other")
	ErrBackwardTransition = errors.New("lead status cannot move backward")
	ErrAlreadyClosed      = errors.New("lead is already converted or lost")
)

// statusRank orders the pipeline so transitions can only move forward.
// converted and lost share the terminal rank.
var statusRank = map[string]int{
	StatusNew:       0,
	StatusContacted: 1,
	StatusTrial:     2,
	StatusConverted: 3,
	StatusLost:      3,
}

// Lead is a prospective member in the sales pipeline.
type Lead struct {
	ID          string
	GymID       string
	Name        string
	Email       string
	Phone       string
	Source      string
	Status      string
	Note        string
	ContactedAt time.Time
	ClosedAt    time.Time // set when converted or lost
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Lead has valid data.
// PRE: Lead struct is populated
// POST: Returns nil if valid, error otherwise
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if len(l.Name) > MaxNameLength {
		return errors.New("lead name cannot exceed 100 characters")
	}
	if l.Email == "" && l.Phone == "" {
		return ErrNoContact
	}
	if l.Email != "" && !strings.Contains(l.Email, "@") {
		return errors.New("lead email must be valid")
	}
	if len(l.Note) > MaxNoteLength {
		return errors.New("lead note cannot exceed 2000 characters")
	}
	if !isValidStatus(l.Status) {
		return ErrInvalidStatus
	}
	if !isValidSource(l.Source) {
		return ErrInvalidSource
	}
	return nil
}

// IsClosed returns true once the lead reached a terminal status.
// INVARIANT: Status field is not mutated
func (l *Lead) IsClosed() bool {
	return l.Status == StatusConverted || l.Status == StatusLost
}

// Advance moves the lead forward in the pipeline.
// PRE: target is a valid status strictly ahead of the current one
// POST: Status is target; ContactedAt/ClosedAt set as the stage requires
func (l *Lead) Advance(target string, now time.Time) error {
	if !isValidStatus(target) {
		return ErrInvalidStatus
	}
	if l.IsClosed() {
		return ErrAlreadyClosed
	}
	if statusRank[target] <= statusRank[l.Status] {
		return ErrBackwardTransition
	}
	l.Status = target
	l.UpdatedAt = now
	switch target {
	case StatusContacted:
		l.ContactedAt = now
	case StatusConverted, StatusLost:
		l.ClosedAt = now
	}
	return nil
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func isValidSource(s string) bool {
	for _, v := range ValidSources {
		if v == s {
			return true
		}
	}
	return false
}
