package trainer

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/trainer"
)

const trainerColumns = "id, gym_id, account_id, name, specialty, hourly_rate_cents, bio, active"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TrainerStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Trainer by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Trainer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+trainerColumns+" FROM trainer WHERE id = ?", id)
	entity, err := scanTrainer(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Trainer{}, fmt.Errorf("trainer not found: %w", err)
	}
	return entity, err
}

// GetByAccountID retrieves a Trainer by account ID.
// PRE: accountID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Trainer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+trainerColumns+" FROM trainer WHERE account_id = ?", accountID)
	entity, err := scanTrainer(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Trainer{}, fmt.Errorf("trainer not found: %w", err)
	}
	return entity, err
}

// Save persists a Trainer to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Trainer) error {
	var accountID any
	if entity.AccountID != "" {
		accountID = entity.AccountID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trainer (`+trainerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, account_id=excluded.account_id, name=excluded.name,
		   specialty=excluded.specialty, hourly_rate_cents=excluded.hourly_rate_cents,
		   bio=excluded.bio, active=excluded.active`,
		entity.ID, entity.GymID, accountID, entity.Name, entity.Specialty,
		entity.HourlyRateCents, entity.Bio, entity.Active)
	return err
}

// Delete removes a Trainer from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trainer WHERE id = ?", id)
	return err
}

// List retrieves a list of Trainers based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities ordered by name
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Trainer, error) {
	query := "SELECT " + trainerColumns + " FROM trainer WHERE 1=1"
	var args []any

	if filter.GymID != "" {
		query += " AND gym_id = ?"
		args = append(args, filter.GymID)
	}
	if filter.Specialty != "" {
		query += " AND specialty = ?"
		args = append(args, filter.Specialty)
	}
	if filter.ActiveOnly {
		query += " AND active = 1"
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

	var results []domain.Trainer
	for rows.Next() {
		entity, err := scanTrainer(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanTrainer extracts a Trainer from a row scanner function.
func scanTrainer(scan func(dest ...interface{}) error) (domain.Trainer, error) {
	var entity domain.Trainer
	var accountID sql.NullString
	err := scan(
		&entity.ID,
		&entity.GymID,
		&accountID,
		&entity.Name,
		&entity.Specialty,
		&entity.HourlyRateCents,
		&entity.Bio,
		&entity.Active,
	)
	if err != nil {
		return domain.Trainer{}, err
	}
	if accountID.Valid {
		entity.AccountID = accountID.String
	}
	return entity, nil
}
