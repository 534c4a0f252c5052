package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mtpl/face-attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

// TemplateRepository provides PostgreSQL-backed biometric template storage.
type TemplateRepository struct {
	pool *Pool
	dim  int
}

// NewTemplateRepository creates a new template repository. dim is the fixed
// embedding dimension all templates must have.
func NewTemplateRepository(pool *Pool, dim int) *TemplateRepository {
	return &TemplateRepository{pool: pool, dim: dim}
}

// Add inserts a new active template for the user.
func (r *TemplateRepository) Add(ctx context.Context, userID int64, embedding []float32) (*database.StoredTemplate, error) {
	if len(embedding) != r.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", database.ErrInvalidEmbedding, len(embedding), r.dim)
	}

	query := `
		INSERT INTO templates (uid, user_id, embedding, dim, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at
	`

	t := database.StoredTemplate{
		UID:       uuid.NewString(),
		UserID:    userID,
		Embedding: embedding,
		Dim:       r.dim,
		IsActive:  true,
	}
	err := r.pool.QueryRow(ctx, query, t.UID, userID, pgvector.NewVector(embedding), r.dim).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return &t, nil
}

// Replace swaps the user's active template for a new one in one transaction.
// On failure the prior template stays active.
func (r *TemplateRepository) Replace(ctx context.Context, userID int64, embedding []float32) (*database.StoredTemplate, error) {
	if len(embedding) != r.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", database.ErrInvalidEmbedding, len(embedding), r.dim)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE templates SET is_active = FALSE WHERE user_id = $1 AND is_active", userID); err != nil {
		return nil, fmt.Errorf("deactivate previous template: %w", err)
	}

	t := database.StoredTemplate{
		UID:       uuid.NewString(),
		UserID:    userID,
		Embedding: embedding,
		Dim:       r.dim,
		IsActive:  true,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO templates (uid, user_id, embedding, dim, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at
	`, t.UID, userID, pgvector.NewVector(embedding), r.dim).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert replacement template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &t, nil
}

// Deactivate marks the user's active template inactive. No-op when none exists.
func (r *TemplateRepository) Deactivate(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE templates SET is_active = FALSE WHERE user_id = $1 AND is_active", userID)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	return nil
}

// ActiveTemplates returns all active templates in insertion order.
func (r *TemplateRepository) ActiveTemplates(ctx context.Context) ([]database.StoredTemplate, error) {
	query := `
		SELECT id, uid, user_id, embedding, dim, is_active, created_at
		FROM templates
		WHERE is_active
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active templates: %w", err)
	}
	defer rows.Close()

	var templates []database.StoredTemplate
	for rows.Next() {
		var t database.StoredTemplate
		var vec pgvector.Vector
		if err := rows.Scan(&t.ID, &t.UID, &t.UserID, &vec, &t.Dim, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Embedding = vec.Slice()
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// CountActive returns the number of active templates.
func (r *TemplateRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM templates WHERE is_active").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active templates: %w", err)
	}
	return count, nil
}
