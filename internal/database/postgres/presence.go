package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mtpl/face-attendance/internal/database"
)

// PresenceRepository provides PostgreSQL-backed presence pings.
type PresenceRepository struct {
	pool *Pool
}

// NewPresenceRepository creates a new presence repository.
func NewPresenceRepository(pool *Pool) *PresenceRepository {
	return &PresenceRepository{pool: pool}
}

// Mark inserts a presence row unless one exists within the rolling window.
// A per-user advisory lock makes the check-then-insert atomic even when no
// prior row exists to lock.
func (r *PresenceRepository) Mark(ctx context.Context, userID int64, now time.Time, window time.Duration) (*database.PresenceRecord, bool, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", userID); err != nil {
		return nil, false, fmt.Errorf("acquire presence lock: %w", err)
	}

	var last database.PresenceRecord
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, marked_at, source
		FROM presence
		WHERE user_id = $1
		ORDER BY marked_at DESC
		LIMIT 1
	`, userID).Scan(&last.ID, &last.UserID, &last.MarkedAt, &last.Source)
	switch {
	case err == nil:
		if now.Sub(last.MarkedAt) <= window {
			if err := tx.Commit(); err != nil {
				return nil, false, fmt.Errorf("commit presence: %w", err)
			}
			return &last, false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
		// First sighting of this user.
	default:
		return nil, false, fmt.Errorf("query last presence: %w", err)
	}

	rec := database.PresenceRecord{UserID: userID, MarkedAt: now, Source: "live_camera"}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO presence (user_id, marked_at, source)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, now, rec.Source).Scan(&rec.ID)
	if err != nil {
		return nil, false, fmt.Errorf("insert presence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit presence: %w", err)
	}
	return &rec, true, nil
}
