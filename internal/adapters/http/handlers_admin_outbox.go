package web

import (
	"net/http"

	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/domain/outbox"
)

// outboxExecutors holds the executor set used for manual retries. Set by
// main alongside the background worker so a manual retry actually sends.
var outboxExecutors map[string]orchestrators.ActionExecutor

// SetOutboxExecutors configures the executors used by admin-triggered
// outbox retries.
func SetOutboxExecutors(executors map[string]orchestrators.ActionExecutor) {
	outboxExecutors = executors
}

// handleAdminOutboxList handles GET /api/admin/outbox (list failed entries).
func handleAdminOutboxList(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	limit := parseLimit(r, 50, 100)
	status := r.URL.Query().Get("status")

	var entries []outbox.Entry
	var err error
	if status == "all" {
		entries, err = stores.OutboxStore.ListPending(r.Context(), limit)
	} else {
		entries, err = stores.OutboxStore.ListFailed(r.Context(), limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminOutboxAction handles POST /api/admin/outbox/{id}/{action}
// (manual retry or abandon).
func handleAdminOutboxAction(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	entryID := r.PathValue("id")
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, outboxExecutors)

	switch r.PathValue("action") {
	case "retry":
		if err := processor.ProcessSingle(r.Context(), entryID); err != nil {
			badRequest(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})

	case "abandon":
		if err := processor.AbandonEntry(r.Context(), entryID); err != nil {
			badRequest(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})

	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}
