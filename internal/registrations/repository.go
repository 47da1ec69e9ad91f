package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grace-connect/backend/internal/models"
)

const registrationColumns = `id, member_id, full_name, email, phone_number, gender, attendee_type,
	branch, attendance_date, COALESCE(emergency_contact_name,''), COALESCE(emergency_contact_number,''),
	attended, attended_at, created_at`

// Repository handles camp registration persistence. Registrations are
// append-only: the workflow never updates or deletes rows; only the
// admin check-in flips the attendance flag. Submitting the same
// logical registration twice creates two rows (no dedupe key).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one registration. The database assigns the id and
// creation timestamp.
func (r *Repository) Insert(ctx context.Context, reg *models.CampRegistration) error {
	const q = `INSERT INTO camp_registrations
			(member_id, full_name, email, phone_number, gender, attendee_type, branch, attendance_date,
			emergency_contact_name, emergency_contact_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), NULLIF($10,''))
		RETURNING id, attended, created_at`
	return r.pool.QueryRow(ctx, q, reg.MemberID, reg.FullName, reg.Email, reg.PhoneNumber, reg.Gender,
		string(reg.AttendeeType), reg.Branch, reg.AttendanceDate,
		reg.EmergencyContactName, reg.EmergencyContactNumber).
		Scan(&reg.ID, &reg.Attended, &reg.CreatedAt)
}

func scanRegistration(row pgx.Row) (*models.CampRegistration, error) {
	var reg models.CampRegistration
	err := row.Scan(&reg.ID, &reg.MemberID, &reg.FullName, &reg.Email, &reg.PhoneNumber, &reg.Gender,
		&reg.AttendeeType, &reg.Branch, &reg.AttendanceDate,
		&reg.EmergencyContactName, &reg.EmergencyContactNumber,
		&reg.Attended, &reg.AttendedAt, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CampRegistration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM camp_registrations WHERE id = $1`
	return scanRegistration(r.pool.QueryRow(ctx, q, id))
}

// ListAll returns all registrations, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]*models.CampRegistration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM camp_registrations ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CampRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// UpdateAttendance sets the attended flag for a registration (admin
// check-in). attended_at is stamped when checking in, cleared when
// undoing.
func (r *Repository) UpdateAttendance(ctx context.Context, id uuid.UUID, attended bool) error {
	const q = `UPDATE camp_registrations
		SET attended = $2, attended_at = CASE WHEN $2 THEN NOW() ELSE NULL END
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, attended)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DateCount is per-attendance-date registration totals for the dashboard.
type DateCount struct {
	AttendanceDate string `json:"attendance_date"`
	Total          int    `json:"total"`
	Attended       int    `json:"attended"`
}

// CountByAttendanceDate returns registration and check-in totals per date.
func (r *Repository) CountByAttendanceDate(ctx context.Context) ([]DateCount, error) {
	const q = `SELECT attendance_date, COUNT(*), COUNT(*) FILTER (WHERE attended)
		FROM camp_registrations GROUP BY attendance_date ORDER BY attendance_date`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []DateCount
	for rows.Next() {
		var dc DateCount
		if err := rows.Scan(&dc.AttendanceDate, &dc.Total, &dc.Attended); err != nil {
			return nil, err
		}
		list = append(list, dc)
	}
	return list, rows.Err()
}
