package membership

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/membership"
)

const planColumns = "id, gym_id, name, fee_cents, billing_period, class_allowance, archived"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new membership plan store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Plan by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM membership_plan WHERE id = ?", id)
	entity, err := scanPlan(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Plan{}, fmt.Errorf("membership plan not found: %w", err)
	}
	return entity, err
}

// Save persists a Plan to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Plan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO membership_plan (`+planColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, name=excluded.name, fee_cents=excluded.fee_cents,
		   billing_period=excluded.billing_period, class_allowance=excluded.class_allowance,
		   archived=excluded.archived`,
		entity.ID, entity.GymID, entity.Name, entity.FeeCents,
		entity.BillingPeriod, entity.ClassAllowance, entity.Archived)
	return err
}

// Delete removes a Plan from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM membership_plan WHERE id = ?", id)
	return err
}

// List retrieves the membership plans for a gym ordered by fee.
// PRE: gymID is non-empty
// POST: Returns matching entities, archived plans only when requested
func (s *SQLiteStore) List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Plan, error) {
	query := "SELECT " + planColumns + " FROM membership_plan WHERE gym_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY fee_cents ASC"

	rows, err := s.db.QueryContext(ctx, query, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Plan
	for rows.Next() {
		entity, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanPlan extracts a Plan from a row scanner function.
func scanPlan(scan func(dest ...interface{}) error) (domain.Plan, error) {
	var entity domain.Plan
	err := scan(
		&entity.ID,
		&entity.GymID,
		&entity.Name,
		&entity.FeeCents,
		&entity.BillingPeriod,
		&entity.ClassAllowance,
		&entity.Archived,
	)
	if err != nil {
		return domain.Plan{}, err
	}
	return entity, nil
}
