package web

import (
	"net/http"

	auditStore "gymdesk/internal/adapters/storage/audit"
	auditDomain "gymdesk/internal/domain/audit"
)

// handleAdminAuditTrail handles GET /api/admin/audit with optional filters.
// PRE: User must be authenticated as admin
// POST: Returns audit events ordered newest-first
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	// Events are always scoped to the admin's own gym.
	filter := auditStore.Filter{GymID: &sess.GymID}

	if category := r.URL.Query().Get("category"); category != "" {
		cat := auditDomain.Category(category)
		filter.Category = &cat
	}
	if action := r.URL.Query().Get("action"); action != "" {
		act := auditDomain.Action(action)
		filter.Action = &act
	}
	if actorID := r.URL.Query().Get("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		sev := auditDomain.Severity(severity)
		filter.Severity = &sev
	}
	if resourceID := r.URL.Query().Get("resource_id"); resourceID != "" {
		filter.ResourceID = &resourceID
	}
	if fromDate := r.URL.Query().Get("from"); fromDate != "" {
		filter.FromDate = &fromDate
	}
	if toDate := r.URL.Query().Get("to"); toDate != "" {
		filter.ToDate = &toDate
	}

	events, err := stores.AuditStore.List(r.Context(), filter, parseLimit(r, 100, 1000))
	if err != nil {
		internalError(w, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
