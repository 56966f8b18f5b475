package projections

import (
	"bytes"
	"context"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"gymdesk/internal/domain/exercise"
)

// DetailExerciseStore defines the exercise store interface needed by the
// detail projection.
type DetailExerciseStore interface {
	GetByID(ctx context.Context, id string) (exercise.Exercise, error)
}

// GetExerciseDetailQuery carries input for the exercise detail projection.
type GetExerciseDetailQuery struct {
	ExerciseID string
}

// GetExerciseDetailDeps holds dependencies for the exercise detail projection.
type GetExerciseDetailDeps struct {
	ExerciseStore DetailExerciseStore
}

// ExerciseDetailResult carries the output of the exercise detail projection.
type ExerciseDetailResult struct {
	Exercise         exercise.Exercise
	InstructionsHTML template.HTML
}

// instructionsMarkdown renders instruction Markdown. Raw HTML in the source
// is escaped, so member-authored instructions cannot inject script.
var instructionsMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// QueryGetExerciseDetail loads an exercise and renders its Markdown
// instructions to HTML for display.
func QueryGetExerciseDetail(ctx context.Context, query GetExerciseDetailQuery, deps GetExerciseDetailDeps) (ExerciseDetailResult, error) {
	e, err := deps.ExerciseStore.GetByID(ctx, query.ExerciseID)
	if err != nil {
		return ExerciseDetailResult{}, err
	}

	var buf bytes.Buffer
	if err := instructionsMarkdown.Convert([]byte(e.Instructions), &buf); err != nil {
		return ExerciseDetailResult{}, err
	}

	return ExerciseDetailResult{
		Exercise:         e,
		InstructionsHTML: template.HTML(buf.String()),
	}, nil
}
