package plan

import (
	"errors"
	"sort"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// ValidDifficulties contains all valid difficulty levels.
var ValidDifficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Domain errors
var (
	ErrEmptyName         = errors.New("plan name cannot be empty")
	ErrInvalidDifficulty = errors.New("difficulty must be one of: beginner, intermediate, advanced")
	ErrNoDays            = errors.New("plan must have at least one day")
	ErrNoSlots           = errors.New("plan day must have at least one exercise slot")
	ErrDuplicatePosition = errors.New("positions within a day must be unique")
	ErrBadTargets        = errors.New("slot targets must be positive")
	ErrDayNotFound       = errors.New("plan day not found")
)

// Slot is one ordered exercise within a plan day. Position fixes the
// execution order of the workout session built from the day.
type Slot struct {
	ID          string
	DayID       string
	ExerciseID  string
	Position    int
	TargetSets  int
	TargetReps  int
	RestSeconds int
}

// Day is an ordered group of slots inside a plan (e.g. "Day 1 — Push").
type Day struct {
	ID       string
	PlanID   string
	Name     string
	Position int
	Slots    []Slot
}

// Plan is a reusable workout template.
type Plan struct {
	ID         string
	GymID      string
	Name       string
	Difficulty string
	Archived   bool
	Days       []Day
}

// Validate checks if the Plan and its days and slots have valid data.
// PRE: Plan struct is populated with Days and Slots
// POST: Returns nil if valid, error otherwise
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return errors.New("plan name cannot exceed 100 characters")
	}
	if !isValidDifficulty(p.Difficulty) {
		return ErrInvalidDifficulty
	}
	if len(p.Days) == 0 {
		return ErrNoDays
	}
	for i := range p.Days {
		if err := p.Days[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Day) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("plan day name cannot be empty")
	}
	if len(d.Slots) == 0 {
		return ErrNoSlots
	}
	seen := make(map[int]bool, len(d.Slots))
	for _, s := range d.Slots {
		if seen[s.Position] {
			return ErrDuplicatePosition
		}
		seen[s.Position] = true
		if s.TargetSets <= 0 || s.TargetReps <= 0 || s.RestSeconds < 0 {
			return ErrBadTargets
		}
	}
	return nil
}

// Day returns the day with the given id.
// PRE: Days are loaded
// POST: Returns the day or ErrDayNotFound
func (p *Plan) Day(dayID string) (*Day, error) {
	for i := range p.Days {
		if p.Days[i].ID == dayID {
			return &p.Days[i], nil
		}
	}
	return nil, ErrDayNotFound
}

// OrderedSlots returns the day's slots sorted by position. The session
// engine relies on this order being stable.
// INVARIANT: the receiver's slice is not reordered
func (d *Day) OrderedSlots() []Slot {
	out := make([]Slot, len(d.Slots))
	copy(out, d.Slots)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func isValidDifficulty(diff string) bool {
	for _, v := range ValidDifficulties {
		if v == diff {
			return true
		}
	}
	return false
}
