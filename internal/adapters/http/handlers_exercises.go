package web

import (
	"database/sql"
	"errors"
	"net/http"

	exerciseStore "gymdesk/internal/adapters/storage/exercise"
	"gymdesk/internal/application/projections"
	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/exercise"
)

// handleExerciseList handles GET /api/exercises. The shared default library
// (empty gym_id) is always included alongside the gym's own exercises.
func handleExerciseList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	exercises, err := stores.ExerciseStore.List(r.Context(), exerciseStore.ListFilter{
		GymID:           sess.GymID,
		MuscleGroup:     q.Get("muscle_group"),
		Equipment:       q.Get("equipment"),
		Search:          q.Get("q"),
		IncludeArchived: q.Get("archived") == "true",
		Limit:           parseLimit(r, 200, 500),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if exercises == nil {
		exercises = []exercise.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

// exerciseBody is the client-editable subset of an exercise.
type exerciseBody struct {
	Name         string `json:"name"`
	MuscleGroup  string `json:"muscle_group"`
	Equipment    string `json:"equipment"`
	Instructions string `json:"instructions"`
	Archived     bool   `json:"archived"`
}

// handleExerciseCreate handles POST /api/exercises.
func handleExerciseCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body exerciseBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ex := exercise.Exercise{
		ID:           generateID(),
		GymID:        sess.GymID,
		Name:         body.Name,
		MuscleGroup:  body.MuscleGroup,
		Equipment:    body.Equipment,
		Instructions: body.Instructions,
		Archived:     body.Archived,
	}
	if err := ex.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.ExerciseStore.Save(r.Context(), ex); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionCreate, "exercise", ex.ID, "created exercise")
	writeJSON(w, http.StatusCreated, ex)
}

// exerciseVisible reports whether the exercise belongs to the gym or the
// shared library.
func exerciseVisible(ex exercise.Exercise, gymID string) bool {
	return ex.GymID == "" || ex.GymID == gymID
}

// handleExerciseGet handles GET /api/exercises/{id}. Returns the exercise
// with its instructions rendered from markdown.
func handleExerciseGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetExerciseDetail(r.Context(),
		projections.GetExerciseDetailQuery{ExerciseID: r.PathValue("id")},
		projections.GetExerciseDetailDeps{ExerciseStore: stores.ExerciseStore})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if !exerciseVisible(result.Exercise, sess.GymID) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExerciseUpdate handles PUT /api/exercises/{id}. Shared-library
// exercises are read-only for gym staff.
func handleExerciseUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	ex, err := stores.ExerciseStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if ex.GymID != sess.GymID {
		if ex.GymID == "" {
			http.Error(w, "shared library exercises cannot be edited", http.StatusForbidden)
			return
		}
		http.NotFound(w, r)
		return
	}

	var body exerciseBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ex.Name = body.Name
	ex.MuscleGroup = body.MuscleGroup
	ex.Equipment = body.Equipment
	ex.Instructions = body.Instructions
	ex.Archived = body.Archived
	if err := ex.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.ExerciseStore.Save(r.Context(), ex); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionUpdate, "exercise", ex.ID, "updated exercise")
	writeJSON(w, http.StatusOK, ex)
}

// handleExerciseDelete handles DELETE /api/exercises/{id}.
func handleExerciseDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	ex, err := stores.ExerciseStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if ex.GymID != sess.GymID {
		if ex.GymID == "" {
			http.Error(w, "shared library exercises cannot be deleted", http.StatusForbidden)
			return
		}
		http.NotFound(w, r)
		return
	}
	if err := stores.ExerciseStore.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionDelete, "exercise", id, "deleted exercise")
	w.WriteHeader(http.StatusNoContent)
}
