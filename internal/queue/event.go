// Package queue defines message payloads exchanged over the message broker.
package queue

// RegistrationConfirmedEvent is published after a registration commits.
// It contains enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type RegistrationConfirmedEvent struct {
	MessageID       string  `json:"message_id"`
	ParticipantID   uint64  `json:"participant_id"`
	EventID         uint64  `json:"event_id"`
	EventTitle      string  `json:"event_title"`
	EventDate       string  `json:"event_date"`
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	ReferenceNumber string  `json:"reference_number"`
	Company         *string `json:"company,omitempty"`
	ConfirmedAt     string  `json:"confirmed_at"`
}
