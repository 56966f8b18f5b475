package membership

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Billing periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// UnlimitedClasses marks a plan with no class allowance cap.
const UnlimitedClasses = -1

// ValidPeriods contains all valid billing periods.
var ValidPeriods = []string{PeriodWeekly, PeriodMonthly, PeriodYearly}

// Domain errors
var (
	ErrEmptyName       = errors.New("plan name cannot be empty")
	ErrInvalidPeriod   = errors.New("billing period must be one of: weekly, monthly, yearly")
	ErrNegativeFee     = errors.New("plan fee cannot be negative")
	ErrBadAllowance    = errors.New("class allowance must be positive or unlimited")
	ErrAlreadyArchived = errors.New("plan is already archived")
)

// Plan is a membership tier members subscribe to. Plans referenced by
// members are archived rather than deleted.
type Plan struct {
	ID             string
	GymID          string
	Name           string
	FeeCents       int
	BillingPeriod  string
	ClassAllowance int // classes per period, UnlimitedClasses for no cap
	Archived       bool
}

// Validate checks if the Plan has valid data.
// PRE: Plan struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return errors.New("plan name cannot exceed 100 characters")
	}
	if p.FeeCents < 0 {
		return ErrNegativeFee
	}
	if !isValidPeriod(p.BillingPeriod) {
		return ErrInvalidPeriod
	}
	if p.ClassAllowance != UnlimitedClasses && p.ClassAllowance <= 0 {
		return ErrBadAllowance
	}
	return nil
}

// IsUnlimited returns true when the plan has no class cap.
// INVARIANT: Plan fields are not mutated
func (p *Plan) IsUnlimited() bool {
	return p.ClassAllowance == UnlimitedClasses
}

// Archive retires the plan from new signups.
// PRE: Plan is not already archived
// POST: Archived is true
func (p *Plan) Archive() error {
	if p.Archived {
		return ErrAlreadyArchived
	}
	p.Archived = true
	return nil
}

func isValidPeriod(p string) bool {
	for _, v := range ValidPeriods {
		if v == p {
			return true
		}
	}
	return false
}
