package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/masterfabric/onboarding-events/internal/model"
)

// VerificationRepo persists verification codes. The table is keyed by
// user id, so REPLACE INTO naturally implements the supersede rule: a
// fresh issue overwrites whatever code the subject held before, consumed
// or not. All timestamps are stored in UTC.
type VerificationRepo struct{ DB *sql.DB }

func NewVerificationRepo(db *sql.DB) *VerificationRepo { return &VerificationRepo{DB: db} }

// Upsert stores the code for its subject, replacing any previous row.
func (r *VerificationRepo) Upsert(ctx context.Context, v *model.VerificationCode) error {
	_, err := r.DB.ExecContext(ctx,
		`REPLACE INTO verification_codes
		 (user_id, code, target_email, kind, issued_at, expires_at, consumed)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		v.UserID, v.Code, v.TargetEmail, string(v.Kind),
		v.IssuedAt.UTC().Format("2006-01-02 15:04:05"),
		v.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// Get returns the subject's current code row, consumed or not. Callers
// decide how consumed rows are reported. Missing rows map to
// ErrCodeNotFound.
func (r *VerificationRepo) Get(ctx context.Context, userID uint64) (*model.VerificationCode, error) {
	var (
		v    model.VerificationCode
		kind string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, code, target_email, kind, issued_at, expires_at, consumed
		 FROM verification_codes WHERE user_id = ?`, userID).
		Scan(&v.UserID, &v.Code, &v.TargetEmail, &kind, &v.IssuedAt, &v.ExpiresAt, &v.Consumed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	v.Kind = model.CodeKind(kind)
	return &v, nil
}

// MarkConsumed flips the consumed flag for the subject's row, but only
// when the stored code still matches and has not been consumed yet. The
// conditional update makes concurrent consume attempts race safely in the
// database: exactly one caller observes true.
func (r *VerificationRepo) MarkConsumed(ctx context.Context, userID uint64, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE verification_codes SET consumed = 1
		 WHERE user_id = ? AND code = ? AND consumed = 0`, userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the subject's code row, if any. Used when the verified
// email has been written back to the profile and the code is spent.
func (r *VerificationRepo) Delete(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE user_id = ?`, userID)
	return err
}
