package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is the canonical identity record owned by the member store.
// The registration workflow only ever reads it.
type Member struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	Gender           string    `json:"gender"`
	DOB              string    `json:"dob,omitempty"`
	PhoneNumber      string    `json:"phone_number"`
	WhatsappNumber   string    `json:"whatsapp_number,omitempty"`
	DigitalAddress   string    `json:"digital_address,omitempty"`
	Location         string    `json:"location,omitempty"`
	MaritalStatus    string    `json:"marital_status,omitempty"`
	OccupationStatus string    `json:"occupation_status,omitempty"`
	Organization     string    `json:"organization,omitempty"`
	Branch           string    `json:"branch"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
