package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mtpl/face-attendance/internal/database"
)

// AllowedIPRepository provides PostgreSQL-backed allow-list storage.
type AllowedIPRepository struct {
	pool *Pool
}

// NewAllowedIPRepository creates a new allow-list repository.
func NewAllowedIPRepository(pool *Pool) *AllowedIPRepository {
	return &AllowedIPRepository{pool: pool}
}

// ActiveAddresses returns the addresses currently allowed to clock.
func (r *AllowedIPRepository) ActiveAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT address FROM allowed_ips WHERE is_active ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query active allowed IPs: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan allowed IP: %w", err)
		}
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowed IPs: %w", err)
	}
	return addresses, nil
}

// List returns all allow-list entries.
func (r *AllowedIPRepository) List(ctx context.Context) ([]database.AllowedIP, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, address, description, is_active, created_at FROM allowed_ips ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query allowed IPs: %w", err)
	}
	defer rows.Close()

	var ips []database.AllowedIP
	for rows.Next() {
		var ip database.AllowedIP
		if err := rows.Scan(&ip.ID, &ip.Address, &ip.Description, &ip.IsActive, &ip.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allowed IP: %w", err)
		}
		ips = append(ips, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowed IPs: %w", err)
	}
	return ips, nil
}

// Add inserts a new active allow-list entry.
func (r *AllowedIPRepository) Add(ctx context.Context, address, description string) (*database.AllowedIP, error) {
	ip := database.AllowedIP{Address: address, Description: description, IsActive: true}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO allowed_ips (address, description, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id, created_at
	`, address, description).Scan(&ip.ID, &ip.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert allowed IP: %w", err)
	}
	return &ip, nil
}

// Delete removes an allow-list entry.
func (r *AllowedIPRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, "DELETE FROM allowed_ips WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete allowed IP: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Toggle flips the active flag of an entry and returns the updated row.
func (r *AllowedIPRepository) Toggle(ctx context.Context, id int64) (*database.AllowedIP, error) {
	var ip database.AllowedIP
	err := r.pool.QueryRow(ctx, `
		UPDATE allowed_ips SET is_active = NOT is_active
		WHERE id = $1
		RETURNING id, address, description, is_active, created_at
	`, id).Scan(&ip.ID, &ip.Address, &ip.Description, &ip.IsActive, &ip.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle allowed IP: %w", err)
	}
	return &ip, nil
}
