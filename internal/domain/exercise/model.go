package exercise

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength         = 100
	MaxInstructionsLength = 10000
)

// Muscle groups.
const (
	GroupChest     = "chest"
	GroupBack      = "back"
	GroupLegs      = "legs"
	GroupShoulders = "shoulders"
	GroupArms      = "arms"
	GroupCore      = "core"
	GroupFullBody  = "full_body"
	GroupCardio    = "cardio"
)

// Equipment categories.
const (
	EquipmentNone       = "none"
	EquipmentBarbell    = "barbell"
	EquipmentDumbbell   = "dumbbell"
	EquipmentMachine    = "machine"
	EquipmentKettlebell = "kettlebell"
	EquipmentBand       = "band"
	EquipmentOther      = "other"
)

// ValidGroups contains all valid muscle groups.
var ValidGroups = []string{
	GroupChest, GroupBack, GroupLegs, GroupShoulders, GroupArms, GroupCore, GroupFullBody, GroupCardio,
}

// ValidEquipment contains all valid equipment categories.
var ValidEquipment = []string{
	EquipmentNone, EquipmentBarbell, EquipmentDumbbell, EquipmentMachine,
	EquipmentKettlebell, EquipmentBand, EquipmentOther,
}

// Domain errors
var (
	ErrEmptyName        = errors.New("exercise name cannot be empty")
	ErrInvalidGroup     = errors.New("muscle group is not recognised")
	ErrInvalidEquipment = errors.New("equipment category is not recognised")
)

// Exercise is a library entry. Instructions hold Markdown; rendering happens
// at the read side.
type Exercise struct {
	ID           string
	GymID        string // empty for the shared default library
	Name         string
	MuscleGroup  string
	Equipment    string
	Instructions string
	Archived     bool
}

// Validate checks if the Exercise has valid data.
// PRE: Exercise struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > MaxNameLength {
		return errors.New("exercise name cannot exceed 100 characters")
	}
	if len(e.Instructions) > MaxInstructionsLength {
		return errors.New("exercise instructions cannot exceed 10000 characters")
	}
	if !isValidGroup(e.MuscleGroup) {
		return ErrInvalidGroup
	}
	if e.Equipment != "" && !isValidEquipment(e.Equipment) {
		return ErrInvalidEquipment
	}
	return nil
}

func isValidGroup(g string) bool {
	for _, v := range ValidGroups {
		if v == g {
			return true
		}
	}
	return false
}

func isValidEquipment(e string) bool {
	for _, v := range ValidEquipment {
		if v == e {
			return true
		}
	}
	return false
}
