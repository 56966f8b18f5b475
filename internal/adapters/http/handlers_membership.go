package web

import (
	"database/sql"
	"errors"
	"net/http"

	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/membership"
)

// handleMembershipList handles GET /api/membership-plans.
func handleMembershipList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("archived") == "true"
	plans, err := stores.MembershipStore.List(r.Context(), sess.GymID, includeArchived)
	if err != nil {
		internalError(w, err)
		return
	}
	if plans == nil {
		plans = []membership.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// membershipBody is the client-editable subset of a membership plan.
type membershipBody struct {
	Name           string `json:"name"`
	FeeCents       int    `json:"fee_cents"`
	BillingPeriod  string `json:"billing_period"`
	ClassAllowance int    `json:"class_allowance"`
}

// handleMembershipCreate handles POST /api/membership-plans.
func handleMembershipCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var body membershipBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p := membership.Plan{
		ID:             generateID(),
		GymID:          sess.GymID,
		Name:           body.Name,
		FeeCents:       body.FeeCents,
		BillingPeriod:  body.BillingPeriod,
		ClassAllowance: body.ClassAllowance,
	}
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.MembershipStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionCreate, "membership_plan", p.ID, "created membership plan")
	writeJSON(w, http.StatusCreated, p)
}

// handleMembershipGet handles GET /api/membership-plans/{id}.
func handleMembershipGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	p, err := stores.MembershipStore.GetByID(r.Context(), r.PathValue("id"))
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

// handleMembershipUpdate handles PUT /api/membership-plans/{id}.
func handleMembershipUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	p, err := stores.MembershipStore.GetByID(r.Context(), r.PathValue("id"))
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

	var body membershipBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p.Name = body.Name
	p.FeeCents = body.FeeCents
	p.BillingPeriod = body.BillingPeriod
	p.ClassAllowance = body.ClassAllowance
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.MembershipStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionUpdate, "membership_plan", p.ID, "updated membership plan")
	writeJSON(w, http.StatusOK, p)
}

// handleMembershipArchive handles POST /api/membership-plans/{id}/archive.
// Plans are archived rather than deleted so existing members keep a valid
// plan reference.
func handleMembershipArchive(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	p, err := stores.MembershipStore.GetByID(r.Context(), r.PathValue("id"))
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

	p.Archived = true
	if err := stores.MembershipStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionUpdate, "membership_plan", p.ID, "archived membership plan")
	w.WriteHeader(http.StatusNoContent)
}
