package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/masterfabric/onboarding-events/internal/model"
)

// ParticipantRepo provides persistence for event registrations. The
// capacity and duplicate rules live entirely in Create's transaction so
// that concurrent registrations for the same event are serialized by the
// database rather than by any in-process state: the service runs on
// multiple instances and an in-memory counter could not protect the last
// seat. All timestamp fields are stored in UTC.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

const duplicateEntryErrNo = 1062

// Create registers a participant inside a single transaction:
//
//  1. Lock the event row with SELECT ... FOR UPDATE. Any concurrent
//     registration for the same event blocks here until we commit, so the
//     counts below and the insert see one consistent snapshot.
//  2. Reject when the event is missing (ErrEventNotFound) or not
//     published/active/future (ErrEventNotPublished).
//  3. Reject a second registration for the same normalized email
//     (ErrAlreadyRegistered).
//  4. When the event declares a capacity, reject once the participant
//     count has reached it (ErrEventFull). Under concurrent attempts for
//     the last seat exactly one caller passes this check.
//  5. Insert the row. A duplicate-key error on the reference number is
//     reported as ErrReferenceTaken so the caller can regenerate; a
//     duplicate on (event_id, email) maps to ErrAlreadyRegistered.
//
// On success the generated ID and created_at are populated on p. Either
// every step commits or the transaction rolls back leaving no partial row.
func (r *ParticipantRepo) Create(ctx context.Context, p *model.Participant, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		capacity    sql.NullInt64
		isPublished bool
		isActive    bool
		eventDate   time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, is_published, is_active, event_date
		 FROM events WHERE id = ? FOR UPDATE`, p.EventID).
		Scan(&capacity, &isPublished, &isActive, &eventDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	if !isPublished || !isActive || eventDate.Before(now) {
		return ErrEventNotPublished
	}

	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = ? AND email = ?`,
		p.EventID, p.Email).Scan(&dup)
	if err != nil {
		return err
	}
	if dup > 0 {
		return ErrAlreadyRegistered
	}

	if capacity.Valid {
		var count int64
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM participants WHERE event_id = ?`,
			p.EventID).Scan(&count)
		if err != nil {
			return err
		}
		if count >= capacity.Int64 {
			return ErrEventFull
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO participants
		 (event_id, email, full_name, title, company, reference_number, gdpr_consent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.EventID, p.Email, p.FullName, p.Title, p.Company, p.ReferenceNumber, p.GDPRConsent)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == duplicateEntryErrNo {
			if strings.Contains(me.Message, "reference") {
				return ErrReferenceTaken
			}
			return ErrAlreadyRegistered
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM participants WHERE id = ?`, p.ID).
		Scan(&p.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const ticketColumns = `p.reference_number, p.full_name, p.email, p.created_at,
	e.id, e.title, e.event_date, e.location`

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var (
		t   model.Ticket
		loc sql.NullString
	)
	err := row.Scan(&t.ReferenceNumber, &t.FullName, &t.Email, &t.RegisteredAt,
		&t.EventID, &t.EventTitle, &t.EventDate, &loc)
	if err != nil {
		return nil, err
	}
	if loc.Valid {
		v := loc.String
		t.EventLocation = &v
	}
	return &t, nil
}

// GetTicketByReference resolves a reference number to the public ticket
// projection, or ErrTicketNotFound.
func (r *ParticipantRepo) GetTicketByReference(ctx context.Context, ref string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+`
		 FROM participants p
		 JOIN events e ON e.id = p.event_id
		 WHERE p.reference_number = ?`, ref)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// ListTicketsByEmail returns all tickets registered under the normalized
// email, newest registration first. An empty result is reported as
// ErrTicketNotFound.
func (r *ParticipantRepo) ListTicketsByEmail(ctx context.Context, email string) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+`
		 FROM participants p
		 JOIN events e ON e.id = p.event_id
		 WHERE p.email = ?
		 ORDER BY p.created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrTicketNotFound
	}
	return out, nil
}

// ListByEvent returns all participants of an event when accessed by its
// owner. It verifies ownership first and returns ErrEventNotFound or
// ErrForbidden accordingly.
func (r *ParticipantRepo) ListByEvent(ctx context.Context, eventID, ownerID uint64) ([]model.Participant, error) {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id FROM events WHERE id = ?`, eventID).Scan(&actualOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrForbidden
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, email, full_name, title, company, reference_number, gdpr_consent, created_at
		 FROM participants WHERE event_id = ? ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Participant, 0)
	for rows.Next() {
		var (
			p       model.Participant
			title   sql.NullString
			company sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.EventID, &p.Email, &p.FullName,
			&title, &company, &p.ReferenceNumber, &p.GDPRConsent, &p.CreatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			v := title.String
			p.Title = &v
		}
		if company.Valid {
			v := company.String
			p.Company = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete cancels a registration on behalf of the event owner. Ownership is
// checked through the participant's event. Returns ErrTicketNotFound when
// the participant does not exist and ErrForbidden for foreign events.
func (r *ParticipantRepo) Delete(ctx context.Context, participantID, ownerID uint64) error {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT e.owner_id FROM participants p JOIN events e ON e.id = p.event_id
		 WHERE p.id = ?`, participantID).Scan(&actualOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTicketNotFound
		}
		return err
	}
	if actualOwner != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, participantID)
	return err
}
