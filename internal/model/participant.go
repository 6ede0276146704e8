package model

import "time"

// Participant records a confirmed registration of one email address for one
// event, mirroring the `participants` table. The email is stored normalized
// (lower-cased, trimmed) and at most one row may exist per (event, email)
// pair; the table enforces this with a unique key. ReferenceNumber is a
// globally unique, unguessable token handed to the participant so the
// ticket can be retrieved later without authentication.
type Participant struct {
	ID              uint64    `json:"id"`
	EventID         uint64    `json:"event_id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Title           *string   `json:"title,omitempty"`
	Company         *string   `json:"company,omitempty"`
	ReferenceNumber string    `json:"reference_number"`
	GDPRConsent     bool      `json:"gdpr_consent"`
	CreatedAt       time.Time `json:"created_at"`
}

// Ticket is the public projection of a participant returned by the lookup
// endpoints. It carries only the participant's own data plus the publicly
// displayable event fields (title, date, location) and never internal event
// state such as capacity or owner.
type Ticket struct {
	ReferenceNumber string    `json:"reference_number"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	EventID         uint64    `json:"event_id"`
	EventTitle      string    `json:"event_title"`
	EventDate       time.Time `json:"event_date"`
	EventLocation   *string   `json:"event_location,omitempty"`
	RegisteredAt    time.Time `json:"registered_at"`
}
