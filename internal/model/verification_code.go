package model

import "time"

// CodeKind distinguishes verification flows. The kind submitted on consume
// must match the kind recorded at issue time.
type CodeKind string

const (
	// CodeKindStandard verifies a regular corporate email address.
	CodeKindStandard CodeKind = "standard"
	// CodeKindInternship verifies an internship address, which must carry
	// the "internship." local-part prefix on top of the corporate domain.
	CodeKindInternship CodeKind = "internship"
)

// VerificationCode is a short-lived, single-use numeric code proving control
// of a candidate email address. The `verification_codes` table is keyed by
// user id, so each subject holds at most one code at a time and issuing a
// new code replaces the previous row.
type VerificationCode struct {
	UserID      uint64    // verification_codes.user_id (primary key)
	Code        string    // six ASCII digits
	TargetEmail string    // candidate email being verified
	Kind        CodeKind  // flow this code belongs to
	IssuedAt    time.Time // when the code was generated
	ExpiresAt   time.Time // IssuedAt + 10 minutes, fixed window
	Consumed    bool      // set once on successful consume
}

// Expired reports whether the code is past its validity window.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
