package lead

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/lead"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

const leadColumns = "id, gym_id, name, email, phone, source, status, note, contacted_at, closed_at, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new LeadStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Lead by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+leadColumns+" FROM lead WHERE id = ?", id)
	entity, err := scanLead(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Lead{}, fmt.Errorf("lead not found: %w", err)
	}
	return entity, err
}

// Save persists a Lead to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Lead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, name=excluded.name, email=excluded.email,
		   phone=excluded.phone, source=excluded.source, status=excluded.status,
		   note=excluded.note, contacted_at=excluded.contacted_at,
		   closed_at=excluded.closed_at, updated_at=excluded.updated_at`,
		entity.ID, entity.GymID, entity.Name, entity.Email, entity.Phone,
		entity.Source, entity.Status, entity.Note,
		nullableTime(entity.ContactedAt), nullableTime(entity.ClosedAt),
		entity.CreatedAt.Format(timeLayout), nullableTime(entity.UpdatedAt))
	return err
}

// Delete removes a Lead from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM lead WHERE id = ?", id)
	return err
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.GymID != "" {
		where += " AND gym_id = ?"
		args = append(args, filter.GymID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR email LIKE ? OR phone LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}
	return where, args
}

// Count returns the total number of leads matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lead"+where, args...).Scan(&count)
	return count, err
}

// CountByStatus returns the pipeline breakdown for a gym.
// PRE: gymID is non-empty
// POST: Returns a status -> count map, absent statuses omitted
func (s *SQLiteStore) CountByStatus(ctx context.Context, gymID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM lead WHERE gym_id = ? GROUP BY status", gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// List retrieves a list of Leads based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities ordered by created_at desc
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Lead, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + leadColumns + " FROM lead" + where + " ORDER BY created_at DESC"

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

	var results []domain.Lead
	for rows.Next() {
		entity, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanLead extracts a Lead from a row scanner function.
func scanLead(scan func(dest ...interface{}) error) (domain.Lead, error) {
	var entity domain.Lead
	var contactedAt, closedAt, updatedAt sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.GymID,
		&entity.Name,
		&entity.Email,
		&entity.Phone,
		&entity.Source,
		&entity.Status,
		&entity.Note,
		&contactedAt,
		&closedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	entity.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if contactedAt.Valid && contactedAt.String != "" {
		entity.ContactedAt, err = time.Parse(timeLayout, contactedAt.String)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("failed to parse contacted_at: %w", err)
		}
	}
	if closedAt.Valid && closedAt.String != "" {
		entity.ClosedAt, err = time.Parse(timeLayout, closedAt.String)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("failed to parse closed_at: %w", err)
		}
	}
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, err = time.Parse(timeLayout, updatedAt.String)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("failed to parse updated_at: %w", err)
		}
	}
	return entity, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
