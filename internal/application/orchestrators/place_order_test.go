package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/outbox"
	"gymdesk/internal/domain/shop"
)

// --- in-memory test doubles ---

type memProductStore struct {
	products map[string]shop.Product
}

func newMemProductStore() *memProductStore {
	return &memProductStore{products: make(map[string]shop.Product)}
}

func (s *memProductStore) GetByID(_ context.Context, id string) (shop.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return shop.Product{}, fmt.Errorf("not found")
	}
	return p, nil
}

func (s *memProductStore) Save(_ context.Context, p shop.Product) error {
	s.products[p.ID] = p
	return nil
}

type memOrderStore struct {
	orders map[string]shop.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[string]shop.Order)}
}

func (s *memOrderStore) SaveOrder(_ context.Context, o shop.Order) error {
	s.orders[o.ID] = o
	return nil
}

type memOrderMemberStore struct {
	members map[string]member.Member
}

func (s *memOrderMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return member.Member{}, fmt.Errorf("not found")
	}
	return m, nil
}

type memOrderOutboxStore struct {
	entries []outbox.Entry
	saveErr error
}

func (s *memOrderOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = append(s.entries, e)
	return nil
}

var orderNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type orderHarness struct {
	products *memProductStore
	orders   *memOrderStore
	members  *memOrderMemberStore
	outbox   *memOrderOutboxStore
	deps     PlaceOrderDeps
}

func newOrderHarness() *orderHarness {
	h := &orderHarness{
		products: newMemProductStore(),
		orders:   newMemOrderStore(),
		members:  &memOrderMemberStore{members: make(map[string]member.Member)},
		outbox:   &memOrderOutboxStore{},
	}
	seq := 0
	h.deps = PlaceOrderDeps{
		ProductStore: h.products,
		OrderStore:   h.orders,
		MemberStore:  h.members,
		OutboxStore:  h.outbox,
		GenerateID:   func() string { seq++; return fmt.Sprintf("id-%d", seq) },
		Now:          func() time.Time { return orderNow },
	}
	h.members.members["m1"] = member.Member{
		ID: "m1", GymID: "g1", Email: "m1@example.com", Name: "Demo Member",
		Status: member.StatusActive,
	}
	h.products.products["p1"] = shop.Product{ID: "p1", GymID: "g1", Name: "Shaker Bottle", PriceCents: 1500, Stock: 10}
	h.products.products["p2"] = shop.Product{ID: "p2", GymID: "g1", Name: "Chalk Block", PriceCents: 700, Stock: 3}
	return h
}

// --- tests ---

func TestPlaceOrder_DecrementsStockAndCapturesPrices(t *testing.T) {
	h := newOrderHarness()

	order, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}},
	}, h.deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != shop.OrderPlaced {
		t.Errorf("status = %s, want placed", order.Status)
	}
	if order.TotalCents != 2*1500+700 {
		t.Errorf("total = %d, want %d", order.TotalCents, 2*1500+700)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Items[0].UnitPriceCents != 1500 || order.Items[0].ProductName != "Shaker Bottle" {
		t.Errorf("item 0 did not capture product details: %+v", order.Items[0])
	}

	if h.products.products["p1"].Stock != 8 {
		t.Errorf("p1 stock = %d, want 8", h.products.products["p1"].Stock)
	}
	if h.products.products["p2"].Stock != 2 {
		t.Errorf("p2 stock = %d, want 2", h.products.products["p2"].Stock)
	}
	if _, ok := h.orders.orders[order.ID]; !ok {
		t.Error("order not saved")
	}
}

func TestPlaceOrder_EnqueuesReceiptEmail(t *testing.T) {
	h := newOrderHarness()

	_, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 1}},
	}, h.deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.outbox.entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(h.outbox.entries))
	}
	entry := h.outbox.entries[0]
	if entry.ActionType != outbox.ActionTypeEmail {
		t.Errorf("action type = %s, want email", entry.ActionType)
	}
	if entry.Status != outbox.StatusPending {
		t.Errorf("status = %s, want pending", entry.Status)
	}

	var payload EmailPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.To != "m1@example.com" {
		t.Errorf("to = %s", payload.To)
	}
	if !strings.Contains(payload.Body, "Shaker Bottle") || !strings.Contains(payload.Body, "$15.00") {
		t.Errorf("body missing line item: %q", payload.Body)
	}
}

func TestPlaceOrder_InsufficientStockTouchesNothing(t *testing.T) {
	h := newOrderHarness()

	_, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 4}},
	}, h.deps)
	if !errors.Is(err, shop.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// The first line was valid, but nothing may be decremented when any
	// line fails.
	if h.products.products["p1"].Stock != 10 {
		t.Errorf("p1 stock = %d, want 10", h.products.products["p1"].Stock)
	}
	if len(h.orders.orders) != 0 {
		t.Error("no order should be saved")
	}
	if len(h.outbox.entries) != 0 {
		t.Error("no receipt should be enqueued")
	}
}

func TestPlaceOrder_RejectsArchivedProduct(t *testing.T) {
	h := newOrderHarness()
	p := h.products.products["p1"]
	p.Archived = true
	h.products.products["p1"] = p

	_, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 1}},
	}, h.deps)
	if err == nil {
		t.Fatal("expected error for archived product")
	}
}

func TestPlaceOrder_RejectsInactiveMember(t *testing.T) {
	h := newOrderHarness()
	m := h.members.members["m1"]
	m.Status = member.StatusInactive
	h.members.members["m1"] = m

	_, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 1}},
	}, h.deps)
	if !errors.Is(err, ErrMemberNotActive) {
		t.Errorf("err = %v, want ErrMemberNotActive", err)
	}
}

func TestPlaceOrder_ReceiptFailureKeepsOrder(t *testing.T) {
	h := newOrderHarness()
	h.outbox.saveErr = errors.New("outbox down")

	order, err := ExecutePlaceOrder(context.Background(), PlaceOrderInput{
		GymID: "g1", MemberID: "m1",
		Lines: []OrderLine{{ProductID: "p1", Quantity: 1}},
	}, h.deps)
	if err != nil {
		t.Fatalf("order should survive receipt failure: %v", err)
	}
	if _, ok := h.orders.orders[order.ID]; !ok {
		t.Error("order not saved")
	}
	if h.products.products["p1"].Stock != 9 {
		t.Errorf("stock = %d, want 9", h.products.products["p1"].Stock)
	}
}
