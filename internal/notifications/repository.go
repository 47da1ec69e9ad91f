package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grace-connect/backend/internal/models"
)

// Repository handles notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification record.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (update_request_id, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, n.UpdateRequestID, n.Recipient, n.Subject, n.Body, n.Status).
		Scan(&n.ID, &n.CreatedAt)
}

// List returns notifications, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Notification, error) {
	const q = `SELECT id, update_request_id, recipient, subject, body, status, created_at
		FROM notifications ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UpdateRequestID, &n.Recipient, &n.Subject, &n.Body, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
