package membership

import (
	"context"

	domain "gymdesk/internal/domain/membership"
)

// Store persists membership Plan state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Plan, error)
	Save(ctx context.Context, value domain.Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Plan, error)
}
