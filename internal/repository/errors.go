// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto the HTTP error taxonomy. For example, ErrEventFull signals
// that the capacity check inside the registration transaction failed,
// while ErrForbidden indicates that the current user is not authorized
// to manage a resource owned by someone else.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete an event that still has participants. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when the requested event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrEventNotPublished is returned when an event exists but is not
// published, not active, or already in the past. Public callers see
// the same 404 as for a missing event so unpublished events do not leak.
var ErrEventNotPublished = errors.New("event not published")

// ErrEventFull is returned by the registration transaction when the
// event has a capacity and the participant count already reached it.
var ErrEventFull = errors.New("event full")

// ErrAlreadyRegistered is returned when a non-cancelled registration
// already exists for the same (event, email) pair.
var ErrAlreadyRegistered = errors.New("email already registered for this event")

// ErrReferenceTaken is returned when the generated reference number
// collided with an existing row. The caller regenerates and retries.
var ErrReferenceTaken = errors.New("reference number already taken")

// ErrTicketNotFound is returned by the lookup queries when no
// participant matches the given reference number or email.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrCodeNotFound is returned when no verification code row exists for
// the subject, or the stored code was already consumed.
var ErrCodeNotFound = errors.New("verification code not found")

// ErrEmailExists is returned when registering a user with an email
// that is already taken.
var ErrEmailExists = errors.New("email already exists")
