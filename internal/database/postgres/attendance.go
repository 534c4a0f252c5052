package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mtpl/face-attendance/internal/attendance"
	"github.com/mtpl/face-attendance/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance day records with
// transactional state transitions.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const recordColumns = `id, user_id, day::text, state, status, source,
	clock_in_time, clock_out_time, break_in_time, break_out_time,
	ip_address, latitude, longitude, distance_m, created_at`

func scanRecord(row interface{ Scan(...any) error }) (*attendance.Record, error) {
	var rec attendance.Record
	var ip sql.NullString
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Day, &rec.State, &rec.Status, &rec.Source,
		&rec.ClockInTime, &rec.ClockOutTime, &rec.BreakInTime, &rec.BreakOutTime,
		&ip, &rec.Latitude, &rec.Longitude, &rec.DistanceM, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.IPAddress = ip.String
	return &rec, nil
}

// Transition atomically applies one state-machine action for (user, day).
// The day row is locked for the duration of the check-and-write; a first
// clock-in relies on the (user_id, day) unique constraint so two concurrent
// attempts cannot both insert.
func (r *AttendanceRepository) Transition(ctx context.Context, userID int64, day string, action attendance.Action, now time.Time, meta attendance.TransitionMeta) (*attendance.Record, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := "SELECT " + recordColumns + " FROM attendance_days WHERE user_id = $1 AND day = $2 FOR UPDATE"
	rec, err := scanRecord(tx.QueryRowContext(ctx, query, userID, day))
	if errors.Is(err, sql.ErrNoRows) {
		rec = nil
	} else if err != nil {
		return nil, fmt.Errorf("lock attendance record: %w", err)
	}

	applied, err := attendance.Apply(rec, userID, day, action, now, meta)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		applied, err = insertRecord(ctx, tx, applied)
		if err != nil {
			return nil, err
		}
	} else if err := updateRecord(ctx, tx, applied); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return applied, nil
}

// insertRecord creates the day's record. A concurrent clock-in that lost the
// race hits the unique constraint and surfaces as ErrAlreadyClockedIn.
func insertRecord(ctx context.Context, tx *sql.Tx, rec *attendance.Record) (*attendance.Record, error) {
	query := `
		INSERT INTO attendance_days
			(user_id, day, state, status, source, clock_in_time,
			 ip_address, latitude, longitude, distance_m, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)
		ON CONFLICT (user_id, day) DO NOTHING
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, query,
		rec.UserID, rec.Day, rec.State, rec.Status, rec.Source, rec.ClockInTime,
		rec.IPAddress, rec.Latitude, rec.Longitude, rec.DistanceM, rec.CreatedAt,
	).Scan(&rec.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, attendance.ErrAlreadyClockedIn
	}
	if err != nil {
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}
	return rec, nil
}

func updateRecord(ctx context.Context, tx *sql.Tx, rec *attendance.Record) error {
	query := `
		UPDATE attendance_days
		SET state = $1, clock_out_time = $2, break_in_time = $3, break_out_time = $4
		WHERE id = $5
	`
	_, err := tx.ExecContext(ctx, query,
		rec.State, rec.ClockOutTime, rec.BreakInTime, rec.BreakOutTime, rec.ID)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	return nil
}

// Get returns the record for (user, day), or nil when absent.
func (r *AttendanceRepository) Get(ctx context.Context, userID int64, day string) (*attendance.Record, error) {
	query := "SELECT " + recordColumns + " FROM attendance_days WHERE user_id = $1 AND day = $2"
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, userID, day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attendance record: %w", err)
	}
	return rec, nil
}

// Latest returns the most recent records across all users.
func (r *AttendanceRepository) Latest(ctx context.Context, limit int) ([]attendance.Record, error) {
	query := "SELECT " + recordColumns + " FROM attendance_days ORDER BY created_at DESC LIMIT $1"
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// StatsForDay aggregates attendance counts for one civil date.
func (r *AttendanceRepository) StatsForDay(ctx context.Context, day string) (database.DayStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE clock_in_time IS NOT NULL),
			COUNT(*) FILTER (WHERE state = 'on_break'),
			COUNT(*) FILTER (WHERE state = 'clocked_out')
		FROM attendance_days
		WHERE day = $1
	`
	var stats database.DayStats
	err := r.pool.QueryRow(ctx, query, day).Scan(&stats.Present, &stats.OnBreak, &stats.ClockedOut)
	if err != nil {
		return database.DayStats{}, fmt.Errorf("query day stats: %w", err)
	}
	return stats, nil
}
