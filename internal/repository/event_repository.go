package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/masterfabric/onboarding-events/internal/model"
)

// EventRepo provides CRUD operations for events. Mutations are restricted
// to the owning user; public reads filter on the published/active/future
// visibility rule. All timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span events and participants.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, owner_id, title, description, location, event_date,
	capacity, is_published, is_active, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var (
		e        model.Event
		desc     sql.NullString
		loc      sql.NullString
		capacity sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &desc, &loc, &e.EventDate,
		&capacity, &e.IsPublished, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		v := desc.String
		e.Description = &v
	}
	if loc.Valid {
		v := loc.String
		e.Location = &v
	}
	if capacity.Valid {
		v := uint32(capacity.Int64)
		e.Capacity = &v
	}
	return &e, nil
}

// Create inserts a new event owned by ownerID and populates the generated
// ID and timestamps on the returned event.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	const q = `INSERT INTO events
		(owner_id, title, description, location, event_date, capacity, is_published, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.OwnerID, e.Title, e.Description, e.Location,
		e.EventDate.UTC().Format("2006-01-02 15:04:05"),
		e.Capacity, e.IsPublished, e.IsActive)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns any event regardless of visibility, or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetPublished returns a single event visible to the public: published,
// active and scheduled at or after now. Events that exist but fail the
// visibility rule are reported as ErrEventNotFound so their existence
// does not leak.
func (r *EventRepo) GetPublished(ctx context.Context, id uint64, now time.Time) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE id = ? AND is_published = 1 AND is_active = 1 AND event_date >= ?`,
		id, now.UTC().Format("2006-01-02 15:04:05"))
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// ListPublished returns all publicly visible events ordered by date.
func (r *EventRepo) ListPublished(ctx context.Context, now time.Time) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE is_published = 1 AND is_active = 1 AND event_date >= ?
		 ORDER BY event_date ASC`,
		now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListByOwner returns all events created by the given owner, newest first.
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetByIDAndOwner returns the event only when it belongs to ownerID. It
// returns ErrEventNotFound when the event does not exist and ErrForbidden
// when it is owned by someone else.
func (r *EventRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return e, nil
}

// Update applies owner edits to title, description, location, date and
// capacity. Ownership must have been verified by the caller.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events
		SET title = ?, description = ?, location = ?, event_date = ?, capacity = ?, is_active = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.Location,
		e.EventDate.UTC().Format("2006-01-02 15:04:05"),
		e.Capacity, e.IsActive, e.ID)
	return err
}

// SetPublished flips the publication flag.
func (r *EventRepo) SetPublished(ctx context.Context, id uint64, published bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET is_published = ? WHERE id = ?`, published, id)
	return err
}

// Delete removes an event that has no participants. When participants
// exist the delete is refused with ErrConflict so tickets stay resolvable.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = ?`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrEventNotFound
	}
	return nil
}
