package projections

import (
	"context"

	memberStore "gymdesk/internal/adapters/storage/member"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	GymID  string
	Status string
	PlanID string
	Search string
	Sort   string
	Dir    string
	Page   int
	Limit  int
}

// MemberRow represents a member with their plan name resolved.
type MemberRow struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Status   string
	PlanID   string
	PlanName string
	JoinedAt string // YYYY-MM-DD or empty
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members   []MemberRow
	Total     int
	Page      int
	PageCount int
	PerPage   int
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore     MemberStore
	MembershipStore MembershipStore
}

// QueryGetMemberList retrieves a page of members with plan names resolved.
// PRE: Valid query parameters
// POST: Returns members filtered, sorted and paginated
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	filter := memberStore.ListFilter{
		GymID:  query.GymID,
		PlanID: query.PlanID,
		Status: query.Status,
		Search: query.Search,
		Sort:   query.Sort,
		Dir:    query.Dir,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	members, err := deps.MemberStore.List(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}
	total, err := deps.MemberStore.Count(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}

	// Resolve plan names in one pass.
	planNames := make(map[string]string)
	if deps.MembershipStore != nil {
		plans, err := deps.MembershipStore.List(ctx, query.GymID, true)
		if err == nil {
			for _, p := range plans {
				planNames[p.ID] = p.Name
			}
		}
	}

	rows := make([]MemberRow, 0, len(members))
	for _, m := range members {
		row := MemberRow{
			ID:       m.ID,
			Name:     m.Name,
			Email:    m.Email,
			Phone:    m.Phone,
			Status:   m.Status,
			PlanID:   m.PlanID,
			PlanName: planNames[m.PlanID],
		}
		if !m.JoinedAt.IsZero() {
			row.JoinedAt = m.JoinedAt.Format("2006-01-02")
		}
		rows = append(rows, row)
	}

	pageCount := (total + limit - 1) / limit
	if pageCount < 1 {
		pageCount = 1
	}

	return GetMemberListResult{
		Members:   rows,
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		PerPage:   limit,
	}, nil
}
