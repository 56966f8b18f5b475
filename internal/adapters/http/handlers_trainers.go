package web

import (
	"database/sql"
	"errors"
	"net/http"

	trainerStore "gymdesk/internal/adapters/storage/trainer"
	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/trainer"
)

// handleTrainerList handles GET /api/trainers.
func handleTrainerList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	trainers, err := stores.TrainerStore.List(r.Context(), trainerStore.ListFilter{
		GymID:      sess.GymID,
		Specialty:  q.Get("specialty"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      parseLimit(r, 100, 500),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if trainers == nil {
		trainers = []trainer.Trainer{}
	}
	writeJSON(w, http.StatusOK, trainers)
}

// trainerBody is the client-editable subset of a trainer.
type trainerBody struct {
	AccountID       string `json:"account_id"`
	Name            string `json:"name"`
	Specialty       string `json:"specialty"`
	HourlyRateCents int    `json:"hourly_rate_cents"`
	Bio             string `json:"bio"`
	Active          bool   `json:"active"`
}

// handleTrainerCreate handles POST /api/trainers.
func handleTrainerCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var body trainerBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	t := trainer.Trainer{
		ID:              generateID(),
		GymID:           sess.GymID,
		AccountID:       body.AccountID,
		Name:            body.Name,
		Specialty:       body.Specialty,
		HourlyRateCents: body.HourlyRateCents,
		Bio:             body.Bio,
		Active:          body.Active,
	}
	if err := t.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.TrainerStore.Save(r.Context(), t); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionCreate, "trainer", t.ID, "created trainer")
	writeJSON(w, http.StatusCreated, t)
}

// handleTrainerGet handles GET /api/trainers/{id}.
func handleTrainerGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	t, err := stores.TrainerStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if t.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleTrainerUpdate handles PUT /api/trainers/{id}.
func handleTrainerUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	t, err := stores.TrainerStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if t.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body trainerBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	t.AccountID = body.AccountID
	t.Name = body.Name
	t.Specialty = body.Specialty
	t.HourlyRateCents = body.HourlyRateCents
	t.Bio = body.Bio
	t.Active = body.Active
	if err := t.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.TrainerStore.Save(r.Context(), t); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionUpdate, "trainer", t.ID, "updated trainer")
	writeJSON(w, http.StatusOK, t)
}

// handleTrainerDelete handles DELETE /api/trainers/{id}.
func handleTrainerDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	t, err := stores.TrainerStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if t.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	if err := stores.TrainerStore.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionDelete, "trainer", id, "deleted trainer")
	w.WriteHeader(http.StatusNoContent)
}
