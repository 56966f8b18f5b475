package gym

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/gym"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new GymStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Gym by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Gym, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, timezone, created_at FROM gym WHERE id = ?", id)
	entity, err := scanGym(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Gym{}, fmt.Errorf("gym not found: %w", err)
	}
	return entity, err
}

// Save persists a Gym to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Gym) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gym (id, name, timezone, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, timezone=excluded.timezone`,
		entity.ID, entity.Name, entity.Timezone, entity.CreatedAt.Format(timeLayout))
	return err
}

// List retrieves all gyms ordered by name.
// POST: Returns all entities
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Gym, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, timezone, created_at FROM gym ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Gym
	for rows.Next() {
		entity, err := scanGym(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanGym extracts a Gym from a row scanner function.
func scanGym(scan func(dest ...interface{}) error) (domain.Gym, error) {
	var entity domain.Gym
	var createdAt string
	err := scan(&entity.ID, &entity.Name, &entity.Timezone, &createdAt)
	if err != nil {
		return domain.Gym{}, err
	}
	entity.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Gym{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}
