package trainer

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
	MaxBioLength  = 2000
)

// Specialties offered on the trainer profile.
const (
	SpecialtyStrength     = "strength"
	SpecialtyConditioning = "conditioning"
	SpecialtyMobility     = "mobility"
	SpecialtyRehab        = "rehab"
	SpecialtyGeneral      = "general"
)

// ValidSpecialties contains all valid specialty values.
var ValidSpecialties = []string{
	SpecialtyStrength, SpecialtyConditioning, SpecialtyMobility, SpecialtyRehab, SpecialtyGeneral,
}

// Domain errors
var (
	ErrEmptyName          = errors.New("trainer name cannot be empty")
	ErrInvalidSpecialty   = errors.New("specialty must be one of: strength, conditioning, mobility, rehab, general")
	ErrNegativeRate       = errors.New("hourly rate cannot be negative")
	ErrAlreadyDeactivated = errors.New("trainer is already deactivated")
	ErrAlreadyActive      = errors.New("trainer is already active")
)

// Trainer holds state for a staff trainer profile.
type Trainer struct {
	ID              string
	GymID           string
	AccountID       string // optional link to a login account
	Name            string
	Specialty       string
	HourlyRateCents int
	Bio             string
	Active          bool
}

// Validate checks if the Trainer has valid data.
// PRE: Trainer struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Trainer) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return errors.New("trainer name cannot exceed 100 characters")
	}
	if len(t.Bio) > MaxBioLength {
		return errors.New("trainer bio cannot exceed 2000 characters")
	}
	if !isValidSpecialty(t.Specialty) {
		return ErrInvalidSpecialty
	}
	if t.HourlyRateCents < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Deactivate removes the trainer from the active roster.
// PRE: Trainer is active
// POST: Active is false
func (t *Trainer) Deactivate() error {
	if !t.Active {
		return ErrAlreadyDeactivated
	}
	t.Active = false
	return nil
}

// Reactivate puts the trainer back on the active roster.
// PRE: Trainer is inactive
// POST: Active is true
func (t *Trainer) Reactivate() error {
	if t.Active {
		return ErrAlreadyActive
	}
	t.Active = true
	return nil
}

func isValidSpecialty(s string) bool {
	for _, v := range ValidSpecialties {
		if v == s {
			return true
		}
	}
	return false
}
