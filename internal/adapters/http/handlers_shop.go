package web

import (
	"database/sql"
	"errors"
	"net/http"

	"gymdesk/internal/adapters/http/middleware"
	shopStore "gymdesk/internal/adapters/storage/shop"
	"gymdesk/internal/application/orchestrators"
	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/shop"
)

// handleProductList handles GET /api/products.
func handleProductList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("archived") == "true" && middleware.IsStaff(r.Context())
	products, err := stores.ProductStore.List(r.Context(), sess.GymID, includeArchived)
	if err != nil {
		internalError(w, err)
		return
	}
	if products == nil {
		products = []shop.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// productBody is the client-editable subset of a product.
type productBody struct {
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Stock      int    `json:"stock"`
	Archived   bool   `json:"archived"`
}

// handleProductCreate handles POST /api/products.
func handleProductCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body productBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p := shop.Product{
		ID:         generateID(),
		GymID:      sess.GymID,
		Name:       body.Name,
		PriceCents: body.PriceCents,
		Stock:      body.Stock,
		Archived:   body.Archived,
	}
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.ProductStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryShop, auditDomain.ActionCreate, "product", p.ID, "created product")
	writeJSON(w, http.StatusCreated, p)
}

// handleProductGet handles GET /api/products/{id}.
func handleProductGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	p, err := stores.ProductStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if p.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleProductUpdate handles PUT /api/products/{id}.
func handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	p, err := stores.ProductStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if p.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body productBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p.Name = body.Name
	p.PriceCents = body.PriceCents
	p.Stock = body.Stock
	p.Archived = body.Archived
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.ProductStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryShop, auditDomain.ActionUpdate, "product", p.ID, "updated product")
	writeJSON(w, http.StatusOK, p)
}

// handleProductDelete handles DELETE /api/products/{id}.
func handleProductDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	p, err := stores.ProductStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if p.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	if err := stores.ProductStore.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryShop, auditDomain.ActionDelete, "product", id, "deleted product")
	w.WriteHeader(http.StatusNoContent)
}

// handleOrderList handles GET /api/orders. Staff see the gym's orders,
// members only their own.
func handleOrderList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	filter := shopStore.OrderFilter{
		GymID:  sess.GymID,
		Status: r.URL.Query().Get("status"),
		Limit:  parseLimit(r, 100, 500),
	}
	if middleware.IsStaff(r.Context()) {
		filter.MemberID = r.URL.Query().Get("member_id")
	} else {
		m, err := stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil {
			http.Error(w, "no member record for this account", http.StatusForbidden)
			return
		}
		filter.MemberID = m.ID
	}

	orders, err := stores.OrderStore.ListOrders(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}
	if orders == nil {
		orders = []shop.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleOrderPlace handles POST /api/orders. Members buy for themselves;
// staff can place an order on a member's behalf with member_id.
func handleOrderPlace(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		MemberID string                    `json:"member_id"`
		Lines    []orchestrators.OrderLine `json:"lines"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	memberID := body.MemberID
	if memberID == "" || !middleware.IsStaff(r.Context()) {
		m, err := stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil {
			http.Error(w, "no member record for this account", http.StatusForbidden)
			return
		}
		memberID = m.ID
	}

	order, err := orchestrators.ExecutePlaceOrder(r.Context(), orchestrators.PlaceOrderInput{
		GymID:    sess.GymID,
		MemberID: memberID,
		Lines:    body.Lines,
	}, orchestrators.PlaceOrderDeps{
		ProductStore: stores.ProductStore,
		OrderStore:   stores.OrderStore,
		MemberStore:  stores.MemberStore,
		OutboxStore:  stores.OutboxStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrInsufficientStock), errors.Is(err, orchestrators.ErrMemberNotActive):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, sql.ErrNoRows):
			badRequest(w, errors.New("unknown product or member"))
		default:
			badRequest(w, err)
		}
		return
	}

	recordAudit(r, sess, auditDomain.CategoryShop, auditDomain.ActionCreate, "order", order.ID, "placed order")
	writeJSON(w, http.StatusCreated, order)
}

// handleOrderGet handles GET /api/orders/{id}.
func handleOrderGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	o, err := stores.OrderStore.GetOrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if o.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	if !middleware.IsStaff(r.Context()) {
		m, err := stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil || o.MemberID != m.ID {
			http.NotFound(w, r)
			return
		}
	}
	writeJSON(w, http.StatusOK, o)
}

// handleOrderStatus handles POST /api/orders/{id}/status.
func handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	o, err := stores.OrderStore.GetOrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if o.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	now := timeNow()
	switch body.Status {
	case shop.OrderPaid:
		err = o.MarkPaid(now)
	case shop.OrderFulfilled:
		err = o.MarkFulfilled(now)
	case shop.OrderCancelled:
		err = o.Cancel(now)
	default:
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	if err := stores.OrderStore.SaveOrder(r.Context(), o); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryShop, auditDomain.ActionUpdate, "order", o.ID, "order marked "+o.Status)
	writeJSON(w, http.StatusOK, o)
}
