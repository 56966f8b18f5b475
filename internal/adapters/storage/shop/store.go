package shop

import (
	"context"

	domain "gymdesk/internal/domain/shop"
)

// ProductStore persists Product state.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Save(ctx context.Context, value domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Product, error)
}

// OrderStore persists Order state. Orders are saved together with their
// items in a single transaction.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (domain.Order, error)
	SaveOrder(ctx context.Context, value domain.Order) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}

// OrderFilter carries filtering parameters for order listings.
type OrderFilter struct {
	GymID    string
	MemberID string
	Status   string
	Limit    int
	Offset   int
}
