package updaterequests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grace-connect/backend/internal/models"
)

const updateRequestColumns = `id, member_id, full_name, email, COALESCE(gender,''), COALESCE(dob,''),
	phone_number, COALESCE(whatsapp_number,''), COALESCE(digital_address,''), COALESCE(location,''),
	COALESCE(marital_status,''), COALESCE(occupation_status,''), COALESCE(organization,''),
	COALESCE(branch,''), reason, status, reviewed_by, reviewed_at, created_at`

// Repository handles profile update request persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an update requests repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending update request.
func (r *Repository) Create(ctx context.Context, ur *models.UpdateRequest) error {
	const q = `INSERT INTO update_requests
			(member_id, full_name, email, gender, dob, phone_number, whatsapp_number, digital_address,
			location, marital_status, occupation_status, organization, branch, reason)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, NULLIF($7,''), NULLIF($8,''),
			NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), NULLIF($12,''), NULLIF($13,''), $14)
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, ur.MemberID, ur.FullName, ur.Email, ur.Gender, ur.DOB,
		ur.PhoneNumber, ur.WhatsappNumber, ur.DigitalAddress, ur.Location, ur.MaritalStatus,
		ur.OccupationStatus, ur.Organization, ur.Branch, ur.Reason).
		Scan(&ur.ID, &ur.Status, &ur.CreatedAt)
}

func scanUpdateRequest(row pgx.Row) (*models.UpdateRequest, error) {
	var ur models.UpdateRequest
	err := row.Scan(&ur.ID, &ur.MemberID, &ur.FullName, &ur.Email, &ur.Gender, &ur.DOB,
		&ur.PhoneNumber, &ur.WhatsappNumber, &ur.DigitalAddress, &ur.Location,
		&ur.MaritalStatus, &ur.OccupationStatus, &ur.Organization,
		&ur.Branch, &ur.Reason, &ur.Status, &ur.ReviewedBy, &ur.ReviewedAt, &ur.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ur, nil
}

// GetByID returns an update request by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.UpdateRequest, error) {
	const q = `SELECT ` + updateRequestColumns + ` FROM update_requests WHERE id = $1`
	return scanUpdateRequest(r.pool.QueryRow(ctx, q, id))
}

// List returns update requests, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status models.UpdateRequestStatus) ([]*models.UpdateRequest, error) {
	q := `SELECT ` + updateRequestColumns + ` FROM update_requests`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.UpdateRequest
	for rows.Next() {
		ur, err := scanUpdateRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ur)
	}
	return list, rows.Err()
}

// SetStatus marks a pending request approved or rejected with the reviewer.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.UpdateRequestStatus, reviewedBy uuid.UUID) error {
	const q = `UPDATE update_requests SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, string(status), reviewedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
