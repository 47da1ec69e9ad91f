package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendeeType discriminates the two camp registration variants.
type AttendeeType string

const (
	AttendeeVisitor AttendeeType = "VISITOR"
	AttendeeMember  AttendeeType = "MEMBER"
)

// Valid reports whether t is one of the known attendee types.
func (t AttendeeType) Valid() bool {
	return t == AttendeeVisitor || t == AttendeeMember
}

// CampRegistration is one persisted camp registration. Identity fields
// are always fully populated: for MEMBER submissions they are copied
// from the resolved member record, never from user input. Rows are
// append-only from the registration workflow; only the attendance flag
// is mutated later by the admin check-in screen.
type CampRegistration struct {
	ID                     uuid.UUID    `json:"id"`
	MemberID               *uuid.UUID   `json:"member_id,omitempty"`
	FullName               string       `json:"full_name"`
	Email                  string       `json:"email"`
	PhoneNumber            string       `json:"phone_number"`
	Gender                 string       `json:"gender"`
	AttendeeType           AttendeeType `json:"attendee_type"`
	Branch                 string       `json:"branch"`
	AttendanceDate         string       `json:"attendance_date"`
	EmergencyContactName   string       `json:"emergency_contact_name,omitempty"`
	EmergencyContactNumber string       `json:"emergency_contact_number,omitempty"`
	Attended               bool         `json:"attended"`
	AttendedAt             *time.Time   `json:"attended_at,omitempty"`
	CreatedAt              time.Time    `json:"created_at"`
}
