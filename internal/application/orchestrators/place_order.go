package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
	"gymdesk/internal/domain/shop"
)

// ProductStoreForOrder defines the store interface needed by PlaceOrder.
type ProductStoreForOrder interface {
	GetByID(ctx context.Context, id string) (shop.Product, error)
	Save(ctx context.Context, p shop.Product) error
}

// OrderStoreForOrder defines the store interface needed by PlaceOrder.
type OrderStoreForOrder interface {
	SaveOrder(ctx context.Context, o shop.Order) error
}

// MemberStoreForOrder defines the store interface needed by PlaceOrder.
type MemberStoreForOrder interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// OutboxStoreForOrder defines the store interface needed by PlaceOrder.
type OutboxStoreForOrder interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries input for the place-order orchestrator.
type PlaceOrderInput struct {
	GymID    string
	MemberID string
	Lines    []OrderLine
}

// PlaceOrderDeps holds dependencies for PlaceOrder.
type PlaceOrderDeps struct {
	ProductStore ProductStoreForOrder
	OrderStore   OrderStoreForOrder
	MemberStore  MemberStoreForOrder
	OutboxStore  OutboxStoreForOrder
	GenerateID   func() string
	Now          func() time.Time
}

var ErrMemberNotActive = errors.New("only active members can place orders")

// ExecutePlaceOrder validates stock, decrements it and records the order.
// A receipt email is enqueued on the outbox rather than sent inline, so a
// provider outage never loses a sale.
// PRE: Member is active; every line names an unarchived product with
// sufficient stock
// POST: Stock decremented, order saved with status placed and captured
// unit prices, receipt entry enqueued
// INVARIANT: No stock is decremented when any line fails validation
func ExecutePlaceOrder(ctx context.Context, input PlaceOrderInput, deps PlaceOrderDeps) (shop.Order, error) {
	if input.MemberID == "" {
		return shop.Order{}, errors.New("member ID is required")
	}
	if len(input.Lines) == 0 {
		return shop.Order{}, shop.ErrEmptyOrder
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return shop.Order{}, err
	}
	if !m.IsActive() {
		return shop.Order{}, ErrMemberNotActive
	}

	// First pass: load and validate every product before touching stock.
	products := make([]shop.Product, len(input.Lines))
	for i, line := range input.Lines {
		p, err := deps.ProductStore.GetByID(ctx, line.ProductID)
		if err != nil {
			return shop.Order{}, err
		}
		if p.Archived {
			return shop.Order{}, fmt.Errorf("product %s is no longer sold", p.Name)
		}
		if line.Quantity <= 0 {
			return shop.Order{}, shop.ErrBadQuantity
		}
		if line.Quantity > p.Stock {
			return shop.Order{}, fmt.Errorf("%s: %w", p.Name, shop.ErrInsufficientStock)
		}
		products[i] = p
	}

	now := deps.Now()
	order := shop.Order{
		ID:        deps.GenerateID(),
		GymID:     input.GymID,
		MemberID:  input.MemberID,
		Status:    shop.OrderPlaced,
		CreatedAt: now,
	}

	// Second pass: decrement stock and build the order lines.
	for i, line := range input.Lines {
		p := products[i]
		if err := p.TakeStock(line.Quantity); err != nil {
			return shop.Order{}, err
		}
		if err := deps.ProductStore.Save(ctx, p); err != nil {
			return shop.Order{}, err
		}
		order.Items = append(order.Items, shop.OrderItem{
			ID:             deps.GenerateID(),
			OrderID:        order.ID,
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: p.PriceCents,
		})
	}
	order.ComputeTotal()

	if err := order.Validate(); err != nil {
		return shop.Order{}, err
	}
	if err := deps.OrderStore.SaveOrder(ctx, order); err != nil {
		return shop.Order{}, err
	}

	if err := enqueueReceipt(ctx, deps, m, order, now); err != nil {
		// The order stands; the receipt can be replayed from the admin
		// outbox screen.
		slog.Warn("shop_event", "event", "receipt_enqueue_failed", "order_id", order.ID, "error", err)
	}

	slog.Info("shop_event", "event", "order_placed", "order_id", order.ID,
		"member_id", m.ID, "items", len(order.Items), "total_cents", order.TotalCents)
	return order, nil
}

func enqueueReceipt(ctx context.Context, deps PlaceOrderDeps, m member.Member, order shop.Order, now time.Time) error {
	body := fmt.Sprintf("Hi %s,\n\nThanks for your order.\n\n", m.Name)
	for _, it := range order.Items {
		body += fmt.Sprintf("%d x %s — $%.2f\n", it.Quantity, it.ProductName,
			float64(it.Quantity*it.UnitPriceCents)/100)
	}
	body += fmt.Sprintf("\nTotal: $%.2f\n", float64(order.TotalCents)/100)

	payload, err := json.Marshal(EmailPayload{
		To:      m.Email,
		Subject: "Your order receipt",
		Body:    body,
	})
	if err != nil {
		return err
	}

	entry := outbox.Entry{
		ID:          deps.GenerateID(),
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return deps.OutboxStore.Save(ctx, entry)
}
