package plan

import (
	"context"

	domain "gymdesk/internal/domain/plan"
)

// Store persists workout Plan state including days and slots.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Plan, error)
	Save(ctx context.Context, value domain.Plan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Plan, error)
}
