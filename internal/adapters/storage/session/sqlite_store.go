package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/adapters/storage"
	"gymdesk/internal/application/engine"
	"gymdesk/internal/domain/workout"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Store-level errors.
var (
	ErrActiveSessionExists = errors.New("member already has an active session")
	ErrEmptyPlanDay        = errors.New("plan day has no exercises")
	ErrLogNotPending       = errors.New("exercise log not found or already resolved")
	ErrSessionNotFound     = errors.New("session not found")
)

// SQLiteStore persists workout sessions and their exercise logs. It is the
// server-truth side of the engine: exercise statuses only ever move forward
// here, and completion is recorded exactly once.
type SQLiteStore struct {
	db         storage.SQLDB
	now        func() time.Time
	generateID func() string
}

// Compile-time check that *SQLiteStore satisfies the engine port.
var _ engine.SessionStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a session store with production defaults.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now, generateID: uuid.NewString}
}

// NewSQLiteStoreWithDeps creates a session store with injected time and id
// sources for tests.
func NewSQLiteStoreWithDeps(db storage.SQLDB, now func() time.Time, generateID func() string) *SQLiteStore {
	return &SQLiteStore{db: db, now: now, generateID: generateID}
}

const sessionColumns = "id, gym_id, member_id, plan_id, day_id, start_time, completed, total_seconds, created_at"
const logColumns = "id, session_id, exercise_id, position, status, start_time, end_time, duration_seconds"

// GetActiveSession returns the member's not-yet-completed session with its
// logs, or (nil, nil) when none exists.
// PRE: memberID is non-empty
// POST: Returned logs are ordered by position
func (s *SQLiteStore) GetActiveSession(ctx context.Context, memberID string) (*engine.ActiveSession, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM workout_session WHERE member_id = ? AND completed = 0", memberID)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	logs, err := s.loadLogs(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return &engine.ActiveSession{Session: sess, Logs: logs}, nil
}

// StartSession creates a session and one pending exercise log per slot of
// the plan day, in slot order, in a single transaction.
// PRE: the member has no active session; the plan day has at least one slot
// POST: Session and logs exist; logs are pending with positions 0..n-1
func (s *SQLiteStore) StartSession(ctx context.Context, gymID, memberID, planID, dayID string) (engine.ActiveSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.ActiveSession{}, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workout_session WHERE member_id = ? AND completed = 0", memberID).Scan(&existing)
	if err != nil {
		return engine.ActiveSession{}, err
	}
	if existing > 0 {
		return engine.ActiveSession{}, ErrActiveSessionExists
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT exercise_id FROM plan_slot WHERE day_id = ? ORDER BY position", dayID)
	if err != nil {
		return engine.ActiveSession{}, err
	}
	var exerciseIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return engine.ActiveSession{}, err
		}
		exerciseIDs = append(exerciseIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return engine.ActiveSession{}, err
	}
	if len(exerciseIDs) == 0 {
		return engine.ActiveSession{}, ErrEmptyPlanDay
	}

	now := s.now()
	sess := workout.Session{
		ID:        s.generateID(),
		GymID:     gymID,
		MemberID:  memberID,
		PlanID:    planID,
		DayID:     dayID,
		StartTime: now,
		CreatedAt: now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO workout_session (id, gym_id, member_id, plan_id, day_id, start_time, completed, total_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		sess.ID, sess.GymID, sess.MemberID, sess.PlanID, sess.DayID,
		sess.StartTime.Format(timeLayout), sess.CreatedAt.Format(timeLayout))
	if err != nil {
		return engine.ActiveSession{}, fmt.Errorf("failed to insert session: %w", err)
	}

	logs := make([]workout.ExerciseLog, 0, len(exerciseIDs))
	for i, exID := range exerciseIDs {
		log := workout.ExerciseLog{
			ID:         s.generateID(),
			SessionID:  sess.ID,
			ExerciseID: exID,
			Position:   i,
			Status:     workout.StatusPending,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exercise_log (id, session_id, exercise_id, position, status, duration_seconds)
			 VALUES (?, ?, ?, ?, ?, 0)`,
			log.ID, log.SessionID, log.ExerciseID, log.Position, log.Status)
		if err != nil {
			return engine.ActiveSession{}, fmt.Errorf("failed to insert exercise log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := tx.Commit(); err != nil {
		return engine.ActiveSession{}, err
	}
	return engine.ActiveSession{Session: sess, Logs: logs}, nil
}

// StartExercise records the start time of a pending exercise log.
// PRE: logID names a pending log
// POST: start_time is set; status stays pending
func (s *SQLiteStore) StartExercise(ctx context.Context, logID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE exercise_log SET start_time = ? WHERE id = ? AND status = ?",
		at.Format(timeLayout), logID, workout.StatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLogNotPending
	}
	return nil
}

// CompleteExercise resolves a pending exercise log to completed or skipped.
// The pending-only guard makes resolution monotonic at the store level.
// PRE: status is completed or skipped, durationSeconds >= 0
// POST: Log is resolved with end time and duration
func (s *SQLiteStore) CompleteExercise(ctx context.Context, logID, status string, at time.Time, durationSeconds int) error {
	if status != workout.StatusCompleted && status != workout.StatusSkipped {
		return workout.ErrInvalidLogStatus
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE exercise_log SET status = ?, end_time = ?, duration_seconds = ? WHERE id = ? AND status = ?",
		status, at.Format(timeLayout), durationSeconds, logID, workout.StatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLogNotPending
	}
	return nil
}

// CompleteSession marks the session completed and returns its report. A
// second call returns the stored report without error or a second write.
// PRE: sessionID names an existing session
// POST: Session is completed with totalSeconds; report reflects the logs
func (s *SQLiteStore) CompleteSession(ctx context.Context, sessionID string, totalSeconds int) (workout.Report, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return workout.Report{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM workout_session WHERE id = ?", sessionID)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return workout.Report{}, ErrSessionNotFound
	}
	if err != nil {
		return workout.Report{}, err
	}

	if !sess.Completed {
		if err := sess.MarkCompleted(totalSeconds); err != nil {
			return workout.Report{}, err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE workout_session SET completed = 1, total_seconds = ? WHERE id = ? AND completed = 0",
			totalSeconds, sessionID)
		if err != nil {
			return workout.Report{}, err
		}
	}

	logs, err := loadLogsTx(ctx, tx, sessionID)
	if err != nil {
		return workout.Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return workout.Report{}, err
	}
	return workout.BuildReport(sess, logs), nil
}

// CancelSession removes an in-progress session and its logs. Completed
// sessions cannot be cancelled.
// PRE: sessionID names a not-yet-completed session
// POST: Session and logs are gone; no completion data was written
func (s *SQLiteStore) CancelSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var completed int
	err = tx.QueryRowContext(ctx,
		"SELECT completed FROM workout_session WHERE id = ?", sessionID).Scan(&completed)
	if err == sql.ErrNoRows {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if completed != 0 {
		return workout.ErrSessionCompleted
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM exercise_log WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM workout_session WHERE id = ?", sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListCompleted returns a member's completed sessions, newest first, with
// their logs. Used by the training-log projection.
// PRE: memberID is non-empty
// POST: Sessions are ordered by start_time DESC
func (s *SQLiteStore) ListCompleted(ctx context.Context, memberID string, limit, offset int) ([]engine.ActiveSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM workout_session WHERE member_id = ? AND completed = 1 ORDER BY start_time DESC LIMIT ? OFFSET ?",
		memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []workout.Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]engine.ActiveSession, 0, len(sessions))
	for _, sess := range sessions {
		logs, err := s.loadLogs(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.ActiveSession{Session: sess, Logs: logs})
	}
	return out, nil
}

func (s *SQLiteStore) loadLogs(ctx context.Context, sessionID string) ([]workout.ExerciseLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM exercise_log WHERE session_id = ? ORDER BY position", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func loadLogsTx(ctx context.Context, tx *sql.Tx, sessionID string) ([]workout.ExerciseLog, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+logColumns+" FROM exercise_log WHERE session_id = ? ORDER BY position", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func scanSession(scan func(dest ...interface{}) error) (workout.Session, error) {
	var sess workout.Session
	var startTime, createdAt string
	var completed int
	err := scan(
		&sess.ID,
		&sess.GymID,
		&sess.MemberID,
		&sess.PlanID,
		&sess.DayID,
		&startTime,
		&completed,
		&sess.TotalSeconds,
		&createdAt,
	)
	if err != nil {
		return workout.Session{}, err
	}
	sess.Completed = completed != 0
	sess.StartTime, err = time.Parse(timeLayout, startTime)
	if err != nil {
		return workout.Session{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	sess.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return workout.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return sess, nil
}

func scanLogs(rows *sql.Rows) ([]workout.ExerciseLog, error) {
	var logs []workout.ExerciseLog
	for rows.Next() {
		var log workout.ExerciseLog
		var startTime, endTime sql.NullString
		err := rows.Scan(
			&log.ID,
			&log.SessionID,
			&log.ExerciseID,
			&log.Position,
			&log.Status,
			&startTime,
			&endTime,
			&log.DurationSeconds,
		)
		if err != nil {
			return nil, err
		}
		if startTime.Valid && startTime.String != "" {
			log.StartTime, err = time.Parse(timeLayout, startTime.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse exercise_log start_time: %w", err)
			}
		}
		if endTime.Valid && endTime.String != "" {
			log.EndTime, err = time.Parse(timeLayout, endTime.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse exercise_log end_time: %w", err)
			}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
