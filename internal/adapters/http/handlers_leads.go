package web

import (
	"database/sql"
	"errors"
	"net/http"

	leadStore "gymdesk/internal/adapters/storage/lead"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/lead"
)

// handleLeadList handles GET /api/leads.
func handleLeadList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	leads, err := stores.LeadStore.List(r.Context(), leadStore.ListFilter{
		GymID:  sess.GymID,
		Status: q.Get("status"),
		Source: q.Get("source"),
		Search: q.Get("q"),
		Limit:  parseLimit(r, 100, 500),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

// handleLeadPipeline handles GET /api/leads/pipeline.
func handleLeadPipeline(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetLeadPipeline(r.Context(),
		projections.GetLeadPipelineQuery{GymID: sess.GymID, RecentLimit: parseLimit(r, 10, 50)},
		projections.GetLeadPipelineDeps{LeadStore: stores.LeadStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// leadBody is the client-editable subset of a lead.
type leadBody struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
	Note   string `json:"note"`
}

// handleLeadCreate handles POST /api/leads.
func handleLeadCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body leadBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	now := timeNow()
	l := lead.Lead{
		ID:        generateID(),
		GymID:     sess.GymID,
		Name:      body.Name,
		Email:     body.Email,
		Phone:     body.Phone,
		Source:    body.Source,
		Note:      body.Note,
		Status:    lead.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.LeadStore.Save(r.Context(), l); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryLead, auditDomain.ActionCreate, "lead", l.ID, "captured lead")
	writeJSON(w, http.StatusCreated, l)
}

// handleLeadGet handles GET /api/leads/{id}.
func handleLeadGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	l, err := stores.LeadStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if l.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleLeadUpdate handles PUT /api/leads/{id}. Status moves only through
// the advance endpoint.
func handleLeadUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	l, err := stores.LeadStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if l.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body leadBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	l.Name = body.Name
	l.Email = body.Email
	l.Phone = body.Phone
	l.Source = body.Source
	l.Note = body.Note
	l.UpdatedAt = timeNow()
	if err := l.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.LeadStore.Save(r.Context(), l); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryLead, auditDomain.ActionUpdate, "lead", l.ID, "updated lead")
	writeJSON(w, http.StatusOK, l)
}

// handleLeadDelete handles DELETE /api/leads/{id}.
func handleLeadDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	l, err := stores.LeadStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if l.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	if err := stores.LeadStore.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryLead, auditDomain.ActionDelete, "lead", id, "deleted lead")
	w.WriteHeader(http.StatusNoContent)
}

// handleLeadAdvance handles POST /api/leads/{id}/advance. The pipeline only
// moves forward; conversion goes through the convert endpoint so a member
// record is always created alongside.
func handleLeadAdvance(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	l, err := stores.LeadStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if l.GymID != sess.GymID {
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
	if body.Status == lead.StatusConverted {
		http.Error(w, "use the convert endpoint to convert a lead", http.StatusBadRequest)
		return
	}

	if err := l.Advance(body.Status, timeNow()); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.LeadStore.Save(r.Context(), l); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryLead, auditDomain.ActionUpdate, "lead", l.ID, "advanced lead to "+l.Status)
	writeJSON(w, http.StatusOK, l)
}

// handleLeadConvert handles POST /api/leads/{id}/convert.
func handleLeadConvert(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	l, err := stores.LeadStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if l.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body struct {
		PlanID string `json:"plan_id"`
		Email  string `json:"email"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	memberID, err := orchestrators.ExecuteConvertLead(r.Context(), orchestrators.ConvertLeadInput{
		LeadID: r.PathValue("id"),
		PlanID: body.PlanID,
		Email:  body.Email,
	}, orchestrators.ConvertLeadDeps{
		LeadStore:   stores.LeadStore,
		MemberStore: stores.MemberStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.NotFound(w, r)
		case errors.Is(err, orchestrators.ErrLeadAlreadyClosed),
			errors.Is(err, orchestrators.ErrMemberEmailTaken):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			badRequest(w, err)
		}
		return
	}

	recordAudit(r, sess, auditDomain.CategoryLead, auditDomain.ActionUpdate, "lead", r.PathValue("id"), "converted lead to member "+memberID)
	writeJSON(w, http.StatusCreated, map[string]string{"member_id": memberID})
}
