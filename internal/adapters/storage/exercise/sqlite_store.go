package exercise

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/exercise"
)

const exerciseColumns = "id, gym_id, name, muscle_group, equipment, instructions, archived"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ExerciseStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Exercise by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Exercise, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+exerciseColumns+" FROM exercise WHERE id = ?", id)
	entity, err := scanExercise(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Exercise{}, fmt.Errorf("exercise not found: %w", err)
	}
	return entity, err
}

// Save persists an Exercise to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Exercise) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exercise (`+exerciseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, name=excluded.name, muscle_group=excluded.muscle_group,
		   equipment=excluded.equipment, instructions=excluded.instructions,
		   archived=excluded.archived`,
		entity.ID, entity.GymID, entity.Name, entity.MuscleGroup,
		entity.Equipment, entity.Instructions, entity.Archived)
	return err
}

// Delete removes an Exercise from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM exercise WHERE id = ?", id)
	return err
}

// List retrieves exercises visible to a gym: its own plus the shared
// library rows with an empty gym_id.
// PRE: filter has valid parameters
// POST: Returns matching entities ordered by name
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercise WHERE (gym_id = ? OR gym_id = '')"
	args := []any{filter.GymID}

	if filter.MuscleGroup != "" {
		query += " AND muscle_group = ?"
		args = append(args, filter.MuscleGroup)
	}
	if filter.Equipment != "" {
		query += " AND equipment = ?"
		args = append(args, filter.Equipment)
	}
	if filter.Search != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	if !filter.IncludeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY name ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Exercise
	for rows.Next() {
		entity, err := scanExercise(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanExercise extracts an Exercise from a row scanner function.
func scanExercise(scan func(dest ...interface{}) error) (domain.Exercise, error) {
	var entity domain.Exercise
	err := scan(
		&entity.ID,
		&entity.GymID,
		&entity.Name,
		&entity.MuscleGroup,
		&entity.Equipment,
		&entity.Instructions,
		&entity.Archived,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	return entity, nil
}
