package plan

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/plan"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new PlanStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

// GetByID retrieves a Plan with all its days and slots.
// PRE: id is non-empty
// POST: Returns the plan with Days ordered by position and each day's
// Slots ordered by position, or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, gym_id, name, difficulty, archived FROM workout_plan WHERE id = ?", id)
	var p domain.Plan
	err := row.Scan(&p.ID, &p.GymID, &p.Name, &p.Difficulty, &p.Archived)
	if err == sql.ErrNoRows {
		return domain.Plan{}, fmt.Errorf("workout plan not found: %w", err)
	}
	if err != nil {
		return domain.Plan{}, err
	}
	p.Days, err = s.loadDays(ctx, p.ID)
	return p, err
}

// Save persists a Plan and its days and slots in one transaction. Days
// and slots are replaced wholesale so the stored rows always mirror the
// struct.
// PRE: entity has been validated
// POST: Plan, days and slots are persisted atomically
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workout_plan (id, gym_id, name, difficulty, archived)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, name=excluded.name,
		   difficulty=excluded.difficulty, archived=excluded.archived`,
		entity.ID, entity.GymID, entity.Name, entity.Difficulty, entity.Archived)
	if err != nil {
		return err
	}

	// Slots reference days, so they go first.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM plan_slot WHERE day_id IN (SELECT id FROM plan_day WHERE plan_id = ?)`, entity.ID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_day WHERE plan_id = ?", entity.ID); err != nil {
		return err
	}

	for _, d := range entity.Days {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO plan_day (id, plan_id, name, position) VALUES (?, ?, ?, ?)`,
			d.ID, entity.ID, d.Name, d.Position)
		if err != nil {
			return err
		}
		for _, sl := range d.Slots {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO plan_slot (id, day_id, exercise_id, position, target_sets, target_reps, rest_seconds)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sl.ID, d.ID, sl.ExerciseID, sl.Position, sl.TargetSets, sl.TargetReps, sl.RestSeconds)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Delete removes a Plan with its days and slots.
// PRE: id is non-empty and no session references the plan
// POST: Plan, days and slots are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM plan_slot WHERE day_id IN (SELECT id FROM plan_day WHERE plan_id = ?)`, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_day WHERE plan_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM workout_plan WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves the plans for a gym ordered by name. Days and slots are
// loaded for each plan.
// PRE: gymID is non-empty
// POST: Returns matching plans, archived plans only when requested
func (s *SQLiteStore) List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Plan, error) {
	query := "SELECT id, gym_id, name, difficulty, archived FROM workout_plan WHERE gym_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.GymID, &p.Name, &p.Difficulty, &p.Archived); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Days, err = s.loadDays(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) loadDays(ctx context.Context, planID string) ([]domain.Day, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, plan_id, name, position FROM plan_day WHERE plan_id = ? ORDER BY position", planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		var d domain.Day
		if err := rows.Scan(&d.ID, &d.PlanID, &d.Name, &d.Position); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range days {
		days[i].Slots, err = s.loadSlots(ctx, days[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return days, nil
}

func (s *SQLiteStore) loadSlots(ctx context.Context, dayID string) ([]domain.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, day_id, exercise_id, position, target_sets, target_reps, rest_seconds
		 FROM plan_slot WHERE day_id = ? ORDER BY position`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var sl domain.Slot
		err := rows.Scan(&sl.ID, &sl.DayID, &sl.ExerciseID, &sl.Position,
			&sl.TargetSets, &sl.TargetReps, &sl.RestSeconds)
		if err != nil {
			return nil, err
		}
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}
