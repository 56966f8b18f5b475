package gym

import (
	"context"

	domain "gymdesk/internal/domain/gym"
)

// Store persists Gym state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Gym, error)
	Save(ctx context.Context, value domain.Gym) error
	List(ctx context.Context) ([]domain.Gym, error)
}
