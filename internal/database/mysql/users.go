package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtpl/face-attendance/internal/database"
)

// UserDirectory reads users from the HR database.
type UserDirectory struct {
	pool *Pool
}

// NewUserDirectory creates a directory backed by the given pool.
func NewUserDirectory(pool *Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// IsActive reports whether the user exists and is enabled. A missing user is
// inactive, not an error.
func (d *UserDirectory) IsActive(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := d.pool.db.QueryRowContext(ctx,
		"SELECT is_active FROM users WHERE id = ?", userID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user activity: %w", err)
	}
	return active, nil
}

// Get returns the user, or nil when not found.
func (d *UserDirectory) Get(ctx context.Context, userID int64) (*database.DirectoryUser, error) {
	var u database.DirectoryUser
	err := d.pool.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, login, is_active
		FROM users
		WHERE id = ?
	`, userID).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Login, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
