package projections

import (
	"context"

	leadStore "gymdesk/internal/adapters/storage/lead"
	"gymdesk/internal/domain/lead"
)

// PipelineLeadStore defines the lead store interface needed by the
// pipeline projection.
type PipelineLeadStore interface {
	List(ctx context.Context, filter leadStore.ListFilter) ([]lead.Lead, error)
	CountByStatus(ctx context.Context, gymID string) (map[string]int, error)
}

// GetLeadPipelineQuery carries input for the pipeline projection.
type GetLeadPipelineQuery struct {
	GymID       string
	RecentLimit int
}

// GetLeadPipelineDeps holds dependencies for the pipeline projection.
type GetLeadPipelineDeps struct {
	LeadStore PipelineLeadStore
}

// PipelineStage is one column of the pipeline board.
type PipelineStage struct {
	Status string
	Count  int
}

// LeadPipelineResult carries the output of the pipeline projection.
type LeadPipelineResult struct {
	GymID     string
	Stages    []PipelineStage
	OpenCount int
	WonCount  int
	LostCount int
	Recent    []lead.Lead
}

// QueryGetLeadPipeline builds the pipeline board: one stage per status in
// pipeline order, plus the most recently captured leads.
func QueryGetLeadPipeline(ctx context.Context, query GetLeadPipelineQuery, deps GetLeadPipelineDeps) (LeadPipelineResult, error) {
	counts, err := deps.LeadStore.CountByStatus(ctx, query.GymID)
	if err != nil {
		return LeadPipelineResult{}, err
	}

	result := LeadPipelineResult{GymID: query.GymID}
	for _, status := range lead.ValidStatuses {
		n := counts[status]
		result.Stages = append(result.Stages, PipelineStage{Status: status, Count: n})
		switch status {
		case lead.StatusConverted:
			result.WonCount += n
		case lead.StatusLost:
			result.LostCount += n
		default:
			result.OpenCount += n
		}
	}

	limit := query.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	recent, err := deps.LeadStore.List(ctx, leadStore.ListFilter{GymID: query.GymID, Limit: limit})
	if err != nil {
		return LeadPipelineResult{}, err
	}
	result.Recent = recent

	return result, nil
}
