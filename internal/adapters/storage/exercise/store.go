package exercise

import (
	"context"

	domain "gymdesk/internal/domain/exercise"
)

// Store persists Exercise state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Exercise, error)
	Save(ctx context.Context, value domain.Exercise) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Exercise, error)
}

// ListFilter carries filtering parameters for List operations. GymID
// selects gym-specific exercises; the shared library (empty gym_id) is
// always included.
type ListFilter struct {
	GymID           string
	MuscleGroup     string
	Equipment       string
	Search          string
	IncludeArchived bool
	Limit           int
	Offset          int
}
