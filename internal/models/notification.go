package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a recorded admin notification (e.g. "member X
// requested a profile update"), written by the background worker.
type Notification struct {
	ID              uuid.UUID  `json:"id"`
	UpdateRequestID *uuid.UUID `json:"update_request_id,omitempty"`
	Recipient       string     `json:"recipient"`
	Subject         string     `json:"subject"`
	Body            string     `json:"body"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}
