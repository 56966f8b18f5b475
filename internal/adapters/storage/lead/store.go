package lead

import (
	"context"

	domain "gymdesk/internal/domain/lead"
)

// Store persists Lead state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Lead, error)
	Save(ctx context.Context, value domain.Lead) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Lead, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByStatus(ctx context.Context, gymID string) (map[string]int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	GymID  string
	Status string
	Source string
	Search string
	Limit  int
	Offset int
}
