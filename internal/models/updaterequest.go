package models

import (
	"time"

	"github.com/google/uuid"
)

// UpdateRequestStatus is the review status of a profile update request.
type UpdateRequestStatus string

const (
	UpdateRequestPending  UpdateRequestStatus = "pending"
	UpdateRequestApproved UpdateRequestStatus = "approved"
	UpdateRequestRejected UpdateRequestStatus = "rejected"
)

// UpdateRequest is a member-submitted request to change their profile.
// The requested values are held here until an admin approves them, at
// which point they are applied to the member row.
type UpdateRequest struct {
	ID               uuid.UUID           `json:"id"`
	MemberID         uuid.UUID           `json:"member_id"`
	FullName         string              `json:"full_name"`
	Email            string              `json:"email"`
	Gender           string              `json:"gender,omitempty"`
	DOB              string              `json:"dob,omitempty"`
	PhoneNumber      string              `json:"phone_number"`
	WhatsappNumber   string              `json:"whatsapp_number,omitempty"`
	DigitalAddress   string              `json:"digital_address,omitempty"`
	Location         string              `json:"location,omitempty"`
	MaritalStatus    string              `json:"marital_status,omitempty"`
	OccupationStatus string              `json:"occupation_status,omitempty"`
	Organization     string              `json:"organization,omitempty"`
	Branch           string              `json:"branch,omitempty"`
	Reason           string              `json:"reason"`
	Status           UpdateRequestStatus `json:"status"`
	ReviewedBy       *uuid.UUID          `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time          `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}
