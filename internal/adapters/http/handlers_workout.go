package web

import (
	"errors"
	"net/http"
	"strconv"

	"gymdesk/internal/adapters/http/middleware"
	sessionStore "gymdesk/internal/adapters/storage/session"
	"gymdesk/internal/application/engine"
	"gymdesk/internal/application/projections"
	auditDomain "gymdesk/internal/domain/audit"
)

const deviceCookieName = "gymdesk_device"

// deviceID returns the device key from the cookie, minting one on first
// contact. The key scopes the timer snapshot slot: two tabs in the same
// browser share it, two browsers do not.
func deviceID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(deviceCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := generateID()
	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookieName,
		Value:    id,
		HttpOnly: true,
		Secure:   middleware.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   365 * 86400,
	})
	return id
}

// workoutRunner resolves the caller to their member record and device-bound
// runner. Only members run workouts.
func workoutRunner(w http.ResponseWriter, r *http.Request) (*engine.Runner, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return nil, false
	}
	m, err := stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
	if err != nil {
		http.Error(w, "no member record for this account", http.StatusForbidden)
		return nil, false
	}
	return workouts.Runner(deviceID(w, r), m.GymID, m.ID), true
}

// workoutError maps engine and session-store failures to status codes.
// Illegal transitions are conflicts, bad references are client errors.
func workoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionInProgress),
		errors.Is(err, engine.ErrNoSession),
		errors.Is(err, engine.ErrExerciseActive),
		errors.Is(err, engine.ErrNoActiveExercise),
		errors.Is(err, engine.ErrNotCurrentExercise),
		errors.Is(err, engine.ErrExerciseResolved),
		errors.Is(err, sessionStore.ErrActiveSessionExists),
		errors.Is(err, sessionStore.ErrLogNotPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, sessionStore.ErrEmptyPlanDay),
		errors.Is(err, sessionStore.ErrSessionNotFound):
		badRequest(w, err)
	default:
		internalError(w, err)
	}
}

// handleWorkoutState handles GET /api/workout/state.
func handleWorkoutState(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, runner.View())
}

// handleWorkoutStart handles POST /api/workout/start.
func handleWorkoutStart(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}

	var body struct {
		PlanID string `json:"plan_id"`
		DayID  string `json:"day_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if body.PlanID == "" || body.DayID == "" {
		http.Error(w, "plan_id and day_id are required", http.StatusBadRequest)
		return
	}

	if err := runner.Start(r.Context(), body.PlanID, body.DayID); err != nil {
		workoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, runner.View())
}

// handleWorkoutResume handles POST /api/workout/resume. Called on page load;
// reconciles the device snapshot with server truth and restarts the timer.
func handleWorkoutResume(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	if err := runner.Resume(r.Context()); err != nil {
		workoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runner.View())
}

func decodeLogID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		LogID string `json:"log_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return "", false
	}
	if body.LogID == "" {
		http.Error(w, "log_id is required", http.StatusBadRequest)
		return "", false
	}
	return body.LogID, true
}

// handleWorkoutExerciseStart handles POST /api/workout/exercise/start.
func handleWorkoutExerciseStart(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	logID, ok := decodeLogID(w, r)
	if !ok {
		return
	}
	if err := runner.StartExercise(r.Context(), logID); err != nil {
		workoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runner.View())
}

// handleWorkoutExerciseComplete handles POST /api/workout/exercise/complete.
func handleWorkoutExerciseComplete(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	logID, ok := decodeLogID(w, r)
	if !ok {
		return
	}
	if err := runner.CompleteExercise(r.Context(), logID); err != nil {
		workoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runner.View())
}

// handleWorkoutExerciseSkip handles POST /api/workout/exercise/skip.
func handleWorkoutExerciseSkip(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	logID, ok := decodeLogID(w, r)
	if !ok {
		return
	}
	if err := runner.SkipExercise(r.Context(), logID); err != nil {
		workoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runner.View())
}

// handleWorkoutComplete handles POST /api/workout/complete ("end workout
// early"). Idempotent: repeating the call returns the same report.
func handleWorkoutComplete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	report, err := runner.Complete(r.Context())
	if err != nil {
		workoutError(w, err)
		return
	}
	workouts.Release(runner.DeviceID())
	recordAudit(r, sess, auditDomain.CategoryWorkout, auditDomain.ActionUpdate, "workout_session", report.SessionID, "completed workout")
	writeJSON(w, http.StatusOK, report)
}

// handleWorkoutCancel handles POST /api/workout/cancel.
func handleWorkoutCancel(w http.ResponseWriter, r *http.Request) {
	runner, ok := workoutRunner(w, r)
	if !ok {
		return
	}
	if err := runner.Cancel(r.Context()); err != nil {
		workoutError(w, err)
		return
	}
	workouts.Release(runner.DeviceID())
	w.WriteHeader(http.StatusNoContent)
}

// handleWorkoutHistory handles GET /api/workout/history. Members see their
// own log; staff can pass member_id to view someone else's.
func handleWorkoutHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	memberID := r.URL.Query().Get("member_id")
	if memberID != "" && !middleware.IsStaff(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if memberID == "" {
		m, err := stores.MemberStore.GetByAccountID(r.Context(), sess.AccountID)
		if err != nil {
			http.Error(w, "no member record for this account", http.StatusForbidden)
			return
		}
		memberID = m.ID
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	result, err := projections.QueryGetTrainingLog(r.Context(), projections.GetTrainingLogQuery{
		MemberID: memberID,
		Limit:    parseLimit(r, 50, 200),
		Offset:   offset,
	}, projections.GetTrainingLogDeps{
		SessionStore: stores.SessionStore,
		MemberStore:  stores.MemberStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
