package postgres

import (
	"context"
	"fmt"

	"github.com/mtpl/face-attendance/internal/database"
)

// HolidayRepository provides PostgreSQL-backed holiday calendar storage.
type HolidayRepository struct {
	pool *Pool
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(pool *Pool) *HolidayRepository {
	return &HolidayRepository{pool: pool}
}

// List returns all holidays ordered by date.
func (r *HolidayRepository) List(ctx context.Context) ([]database.Holiday, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, day::text, name, is_weekoff, created_at FROM holidays ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []database.Holiday
	for rows.Next() {
		var h database.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.IsWeekoff, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holidays: %w", err)
	}
	return holidays, nil
}

// Add inserts a holiday.
func (r *HolidayRepository) Add(ctx context.Context, date, name string, isWeekoff bool) (*database.Holiday, error) {
	h := database.Holiday{Date: date, Name: name, IsWeekoff: isWeekoff}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO holidays (day, name, is_weekoff)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, date, name, isWeekoff).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert holiday: %w", err)
	}
	return &h, nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM holidays WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}
