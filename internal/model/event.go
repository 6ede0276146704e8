package model

import "time"

// Event represents a bookable onboarding event as stored in the `events`
// table. Events are created by an owner and become visible to the public
// once published, active and scheduled in the future. A nil Capacity means
// the event accepts an unlimited number of participants.
//
// Fields:
//
//	ID          – primary key identifier.
//	OwnerID     – user who created and manages the event.
//	Title       – public event title.
//	Description – optional longer description.
//	Location    – optional venue or address.
//	EventDate   – when the event takes place.
//	Capacity    – maximum number of participants, nil for unlimited.
//	IsPublished – whether the event is visible publicly.
//	IsActive    – soft switch for temporarily hiding an event.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	EventDate   time.Time `json:"event_date"`
	Capacity    *uint32   `json:"capacity,omitempty"`
	IsPublished bool      `json:"is_published"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Visible reports whether the event may be shown to unauthenticated
// callers at the given instant: published, active and not yet started.
func (e *Event) Visible(now time.Time) bool {
	return e.IsPublished && e.IsActive && !e.EventDate.Before(now)
}
