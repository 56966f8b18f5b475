package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/adapters/http/middleware"
	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	auditDomain "gymdesk/internal/domain/audit"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// badRequest returns the error message to the client as JSON.
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// parseLimit reads a bounded limit query parameter.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= max {
			limit = n
		}
	}
	return limit
}

// requireSession rejects unauthenticated requests.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireStaff rejects requests not made by a trainer or admin.
func requireStaff(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if !middleware.IsStaff(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin rejects requests not made by an admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// recordAudit writes an audit event for a handler mutation. Best effort: a
// failed write is logged, the request proceeds.
func recordAudit(r *http.Request, sess middleware.Session, category auditDomain.Category, action auditDomain.Action, resourceType, resourceID, desc string) {
	if stores.AuditStore == nil {
		return
	}
	event := auditDomain.NewEvent(sess.GymID, sess.AccountID, sess.Email, sess.Role, category, action, timeNow()).
		WithResource(resourceType, resourceID).
		WithDescription(desc).
		WithRequest(clientIP(r), r.UserAgent())
	if err := stores.AuditStore.Save(r.Context(), event); err != nil {
		slog.Warn("audit_event", "event", "audit_write_failed", "category", category, "action", action, "error", err)
	}
}

// handleLogin handles POST /api/login.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.LoginInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		switch {
		case errors.Is(err, orchestrators.ErrAccountLocked):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, orchestrators.ErrInvalidCredentials):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		default:
			internalError(w, err)
		}
		return
	}

	token, err := sessions.Create(result.AccountID, result.GymID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	sess := middleware.Session{AccountID: result.AccountID, GymID: result.GymID, Email: result.Email, Role: result.Role}
	recordAudit(r, sess, auditDomain.CategorySecurity, auditDomain.ActionLogin, "account", result.AccountID, "logged in")

	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":               result.AccountID,
		"gym_id":                   result.GymID,
		"email":                    result.Email,
		"role":                     result.Role,
		"password_change_required": result.PasswordChangeRequired,
	})
}

// handleLogout handles POST /api/logout.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		recordAudit(r, sess, auditDomain.CategorySecurity, auditDomain.ActionLogout, "account", sess.AccountID, "logged out")
	}
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword handles POST /api/password.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
	if err != nil {
		if errors.Is(err, orchestrators.ErrCurrentPasswordWrong) || errors.Is(err, orchestrators.ErrNewPasswordSame) {
			badRequest(w, err)
			return
		}
		internalError(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategorySecurity, auditDomain.ActionUpdate, "account", sess.AccountID, "changed password")
	w.WriteHeader(http.StatusNoContent)
}

// handleDashboard handles GET /api/dashboard. The payload shape depends on
// the caller's role.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		GymID:     sess.GymID,
		AccountID: sess.AccountID,
		Role:      sess.Role,
	}, projections.GetDashboardDeps{
		MemberStore: stores.MemberStore,
		LeadStore:   stores.LeadStore,
		OutboxStore: stores.OutboxStore,
		TrainingLogDeps: projections.GetTrainingLogDeps{
			SessionStore: stores.SessionStore,
			MemberStore:  stores.MemberStore,
		},
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
