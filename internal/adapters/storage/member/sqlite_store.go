package member

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/member"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

const memberColumns = "id, gym_id, account_id, plan_id, lead_id, email, name, phone, status, joined_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	entity, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves a Member by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE email = ?", email)
	entity, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// GetByAccountID retrieves a Member by account ID.
// PRE: accountID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE account_id = ?", accountID)
	entity, err := scanMember(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := []string{"id", "gym_id", "account_id", "plan_id", "lead_id", "email", "name", "phone", "status", "joined_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"gym_id=excluded.gym_id", "account_id=excluded.account_id", "plan_id=excluded.plan_id",
		"lead_id=excluded.lead_id", "email=excluded.email", "name=excluded.name",
		"phone=excluded.phone", "status=excluded.status", "joined_at=excluded.joined_at",
	}

	query := fmt.Sprintf(
		"INSERT INTO member (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.GymID,
		nullableString(entity.AccountID),
		nullableString(entity.PlanID),
		nullableString(entity.LeadID),
		entity.Email,
		entity.Name,
		entity.Phone,
		entity.Status,
		nullableTime(entity.JoinedAt),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Member from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	return err
}

// SearchByName finds members whose name matches the query (case-insensitive LIKE).
// PRE: query is non-empty, limit > 0
// POST: Returns matching members ordered by name
func (s *SQLiteStore) SearchByName(ctx context.Context, gymID, query string, limit int) ([]domain.Member, error) {
	q := "SELECT " + memberColumns + " FROM member WHERE gym_id = ? AND name LIKE ? AND status != 'archived' ORDER BY name LIMIT ?"
	rows, err := s.db.QueryContext(ctx, q, gymID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMembers(rows)
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.GymID != "" {
		where += " AND gym_id = ?"
		args = append(args, filter.GymID)
	}
	if filter.PlanID != "" {
		where += " AND plan_id = ?"
		args = append(args, filter.PlanID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR email LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name": "name", "email": "email",
		"status": "status", "joined_at": "joined_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the total number of members matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves a list of Members based on the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + memberColumns + " FROM member" + where
	query += sortClause(filter)

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
	return scanMembers(rows)
}

// scanMember extracts a Member from a row scanner function.
func scanMember(scan func(dest ...interface{}) error) (domain.Member, error) {
	var entity domain.Member
	var accountID, planID, leadID, joinedAt sql.NullString
	err := scan(
		&entity.ID,
		&entity.GymID,
		&accountID,
		&planID,
		&leadID,
		&entity.Email,
		&entity.Name,
		&entity.Phone,
		&entity.Status,
		&joinedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	if accountID.Valid {
		entity.AccountID = accountID.String
	}
	if planID.Valid {
		entity.PlanID = planID.String
	}
	if leadID.Valid {
		entity.LeadID = leadID.String
	}
	if joinedAt.Valid && joinedAt.String != "" {
		entity.JoinedAt, err = time.Parse(timeLayout, joinedAt.String)
		if err != nil {
			return domain.Member{}, fmt.Errorf("failed to parse joined_at: %w", err)
		}
	}
	return entity, nil
}

func scanMembers(rows *sql.Rows) ([]domain.Member, error) {
	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
