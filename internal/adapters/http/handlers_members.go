package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"gymdesk/internal/application/orchestrators"
	"gymdesk/internal/application/projections"
	auditDomain "gymdesk/internal/domain/audit"
)

// handleMemberList handles GET /api/members.
func handleMemberList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := 1
	if s := q.Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			page = n
		}
	}

	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		GymID:  sess.GymID,
		Status: q.Get("status"),
		PlanID: q.Get("plan_id"),
		Search: q.Get("q"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
		Page:   page,
		Limit:  parseLimit(r, 50, 200),
	}, projections.GetMemberListDeps{
		MemberStore:     stores.MemberStore,
		MembershipStore: stores.MembershipStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMemberRegister handles POST /api/members (direct registration,
// bypassing the lead pipeline).
func handleMemberRegister(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	var body struct {
		Email  string `json:"email"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		PlanID string `json:"plan_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	memberID, err := orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
		GymID:  sess.GymID,
		Email:  body.Email,
		Name:   body.Name,
		Phone:  body.Phone,
		PlanID: body.PlanID,
	}, orchestrators.RegisterMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		badRequest(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionCreate, "member", memberID, "registered member")
	writeJSON(w, http.StatusCreated, map[string]string{"member_id": memberID})
}

// handleMemberGet handles GET /api/members/{id}.
func handleMemberGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	m, err := stores.MemberStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	if m.GymID != sess.GymID {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleMemberArchive handles POST /api/members/{id}/archive.
func handleMemberArchive(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	err := orchestrators.ExecuteArchiveMember(r.Context(),
		orchestrators.ArchiveMemberInput{MemberID: id},
		orchestrators.ArchiveMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		badRequest(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionUpdate, "member", id, "archived member")
	w.WriteHeader(http.StatusNoContent)
}

// handleMemberRestore handles POST /api/members/{id}/restore.
func handleMemberRestore(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	err := orchestrators.ExecuteRestoreMember(r.Context(),
		orchestrators.RestoreMemberInput{MemberID: id},
		orchestrators.RestoreMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		badRequest(w, err)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionUpdate, "member", id, "restored member")
	w.WriteHeader(http.StatusNoContent)
}
