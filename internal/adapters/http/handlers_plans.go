package web

import (
	"database/sql"
	"errors"
	"net/http"

	auditDomain "gymdesk/internal/domain/audit"
	"gymdesk/internal/domain/plan"
)

// planBody is the client-editable shape of a workout plan. Day and slot
// order is taken from array position.
type planBody struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Archived   bool   `json:"archived"`
	Days       []struct {
		Name  string `json:"name"`
		Slots []struct {
			ExerciseID  string `json:"exercise_id"`
			TargetSets  int    `json:"target_sets"`
			TargetReps  int    `json:"target_reps"`
			RestSeconds int    `json:"rest_seconds"`
		} `json:"slots"`
	} `json:"days"`
}

// buildPlan assembles a domain plan from the request body with fresh ids.
func buildPlan(id, gymID string, body planBody) plan.Plan {
	p := plan.Plan{
		ID:         id,
		GymID:      gymID,
		Name:       body.Name,
		Difficulty: body.Difficulty,
		Archived:   body.Archived,
	}
	for di, d := range body.Days {
		day := plan.Day{
			ID:       generateID(),
			PlanID:   p.ID,
			Name:     d.Name,
			Position: di,
		}
		for si, s := range d.Slots {
			day.Slots = append(day.Slots, plan.Slot{
				ID:          generateID(),
				DayID:       day.ID,
				ExerciseID:  s.ExerciseID,
				Position:    si,
				TargetSets:  s.TargetSets,
				TargetReps:  s.TargetReps,
				RestSeconds: s.RestSeconds,
			})
		}
		p.Days = append(p.Days, day)
	}
	return p
}

// handlePlanList handles GET /api/plans.
func handlePlanList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("archived") == "true"
	plans, err := stores.PlanStore.List(r.Context(), sess.GymID, includeArchived)
	if err != nil {
		internalError(w, err)
		return
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// handlePlanCreate handles POST /api/plans.
func handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body planBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p := buildPlan(generateID(), sess.GymID, body)
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.PlanStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionCreate, "plan", p.ID, "created workout plan")
	writeJSON(w, http.StatusCreated, p)
}

// handlePlanGet handles GET /api/plans/{id}.
func handlePlanGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	p, err := stores.PlanStore.GetByID(r.Context(), r.PathValue("id"))
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

// handlePlanUpdate handles PUT /api/plans/{id}. Days and slots are replaced
// wholesale; in-flight sessions keep their own exercise_log rows so a plan
// edit never rewrites history.
func handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	existing, err := stores.PlanStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if existing.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}

	var body planBody
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	p := buildPlan(existing.ID, sess.GymID, body)
	if err := p.Validate(); err != nil {
		badRequest(w, err)
		return
	}
	if err := stores.PlanStore.Save(r.Context(), p); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionUpdate, "plan", p.ID, "updated workout plan")
	writeJSON(w, http.StatusOK, p)
}

// handlePlanDelete handles DELETE /api/plans/{id}.
func handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	p, err := stores.PlanStore.GetByID(r.Context(), id)
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
	if err := stores.PlanStore.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionDelete, "plan", id, "deleted workout plan")
	w.WriteHeader(http.StatusNoContent)
}
