package shop

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Order statuses. placed -> paid -> fulfilled, or cancelled from any
// non-terminal state.
const (
	OrderPlaced    = "placed"
	OrderPaid      = "paid"
	OrderFulfilled = "fulfilled"
	OrderCancelled = "cancelled"
)

// ValidOrderStatuses contains all valid order statuses.
var ValidOrderStatuses = []string{OrderPlaced, OrderPaid, OrderFulfilled, OrderCancelled}

// Domain errors
var (
	ErrEmptyProductName  = errors.New("product name cannot be empty")
	ErrNegativePrice     = errors.New("product price cannot be negative")
	ErrNegativeStock     = errors.New("product stock cannot be negative")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrBadQuantity       = errors.New("item quantity must be positive")
	ErrInvalidOrderState = errors.New("invalid order status transition")
	ErrOrderTerminal     = errors.New("order is already fulfilled or cancelled")
)

// Product is a shop item with a stock count.
type Product struct {
	ID         string
	GymID      string
	Name       string
	PriceCents int
	Stock      int
	Archived   bool
}

// Validate checks if the Product has valid data.
// PRE: Product struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyProductName
	}
	if len(p.Name) > MaxNameLength {
		return errors.New("product name cannot exceed 100 characters")
	}
	if p.PriceCents < 0 {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// TakeStock removes qty units from stock.
// PRE: qty > 0 and qty <= Stock
// POST: Stock reduced by qty
func (p *Product) TakeStock(qty int) error {
	if qty <= 0 {
		return ErrBadQuantity
	}
	if qty > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

// ReturnStock puts qty units back, e.g. on order cancellation.
// PRE: qty > 0
// POST: Stock increased by qty
func (p *Product) ReturnStock(qty int) error {
	if qty <= 0 {
		return ErrBadQuantity
	}
	p.Stock += qty
	return nil
}

// OrderItem is one line of an order. UnitPriceCents is captured at order
// time so later price changes do not rewrite history.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int
}

// Order is a member purchase.
type Order struct {
	ID         string
	GymID      string
	MemberID   string
	Status     string
	TotalCents int
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks if the Order has valid data.
// PRE: Order struct is populated with its items
// POST: Returns nil if valid, error otherwise
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return ErrBadQuantity
		}
	}
	if !isValidOrderStatus(o.Status) {
		return ErrInvalidOrderState
	}
	return nil
}

// ComputeTotal sums the line totals into TotalCents.
// PRE: Items carry captured unit prices
// POST: TotalCents equals the sum of quantity * unit price
func (o *Order) ComputeTotal() {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity * it.UnitPriceCents
	}
	o.TotalCents = total
}

// IsTerminal returns true for fulfilled or cancelled orders.
// INVARIANT: Order fields are not mutated
func (o *Order) IsTerminal() bool {
	return o.Status == OrderFulfilled || o.Status == OrderCancelled
}

// MarkPaid moves the order from placed to paid.
// PRE: Order status is placed
// POST: Status is paid
func (o *Order) MarkPaid(now time.Time) error {
	if o.Status != OrderPlaced {
		return ErrInvalidOrderState
	}
	o.Status = OrderPaid
	o.UpdatedAt = now
	return nil
}

// MarkFulfilled moves the order from paid to fulfilled.
// PRE: Order status is paid
// POST: Status is fulfilled
func (o *Order) MarkFulfilled(now time.Time) error {
	if o.Status != OrderPaid {
		return ErrInvalidOrderState
	}
	o.Status = OrderFulfilled
	o.UpdatedAt = now
	return nil
}

// Cancel aborts an order that has not been fulfilled.
// PRE: Order is not terminal
// POST: Status is cancelled
func (o *Order) Cancel(now time.Time) error {
	if o.IsTerminal() {
		return ErrOrderTerminal
	}
	o.Status = OrderCancelled
	o.UpdatedAt = now
	return nil
}

func isValidOrderStatus(s string) bool {
	for _, v := range ValidOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}
