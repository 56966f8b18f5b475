package gym

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Domain errors
var (
	ErrEmptyName = errors.New("gym name cannot be empty")
)

// Gym is a tenant. Every other row in the system is scoped by GymID.
type Gym struct {
	ID        string
	Name      string
	Timezone  string // IANA name, defaults to UTC when empty
	CreatedAt time.Time
}

// Validate checks if the Gym has valid data.
// PRE: Gym struct is populated
// POST: Returns nil if valid, error otherwise
func (g *Gym) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > MaxNameLength {
		return errors.New("gym name cannot exceed 100 characters")
	}
	if g.Timezone != "" {
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			return errors.New("gym timezone must be a valid IANA name")
		}
	}
	return nil
}
