package members

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grace-connect/backend/internal/models"
)

const memberColumns = `id, full_name, email, gender,
	COALESCE(dob,''), phone_number, COALESCE(whatsapp_number,''),
	COALESCE(digital_address,''), COALESCE(location,''), COALESCE(marital_status,''),
	COALESCE(occupation_status,''), COALESCE(organization,''), branch,
	created_at, updated_at`

// Repository handles member persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a members repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.Gender,
		&m.DOB, &m.PhoneNumber, &m.WhatsappNumber,
		&m.DigitalAddress, &m.Location, &m.MaritalStatus,
		&m.OccupationStatus, &m.Organization, &m.Branch,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPhone returns all members whose primary or whatsapp number
// exactly equals phone, newest first. Exact string match only; no
// normalization of spacing or country codes is performed.
func (r *Repository) FindByPhone(ctx context.Context, phone string) ([]*models.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members
		WHERE phone_number = $1 OR whatsapp_number = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetByID returns a member by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.pool.QueryRow(ctx, q, id))
}

// List returns all members ordered by name.
func (r *Repository) List(ctx context.Context) ([]*models.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM members ORDER BY full_name, email`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create inserts a new member.
func (r *Repository) Create(ctx context.Context, m *models.Member) error {
	const q = `INSERT INTO members (full_name, email, gender, dob, phone_number, whatsapp_number,
			digital_address, location, marital_status, occupation_status, organization, branch)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''),
			NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), $12)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.FullName, m.Email, m.Gender, m.DOB, m.PhoneNumber, m.WhatsappNumber,
		m.DigitalAddress, m.Location, m.MaritalStatus, m.OccupationStatus, m.Organization, m.Branch).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// Update rewrites a member's profile fields.
func (r *Repository) Update(ctx context.Context, m *models.Member) error {
	const q = `UPDATE members SET full_name = $2, email = $3, gender = $4, dob = NULLIF($5,''),
			phone_number = $6, whatsapp_number = NULLIF($7,''), digital_address = NULLIF($8,''),
			location = NULLIF($9,''), marital_status = NULLIF($10,''), occupation_status = NULLIF($11,''),
			organization = NULLIF($12,''), branch = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, m.ID, m.FullName, m.Email, m.Gender, m.DOB,
		m.PhoneNumber, m.WhatsappNumber, m.DigitalAddress, m.Location, m.MaritalStatus,
		m.OccupationStatus, m.Organization, m.Branch).Scan(&m.UpdatedAt)
}
