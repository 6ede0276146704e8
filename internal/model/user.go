package model

import "time"

// User represents an account record as stored in the `users` table. Owners
// manage events; members are regular portal accounts that can run the email
// verification flow. VerifiedEmail is set by the verification handler after
// a successful code consume.
//
// Fields:
//
//	ID            – primary key identifier of the user.
//	Email         – unique login email address.
//	PasswordHash  – bcrypt hashed password.
//	Role          – OWNER or MEMBER.
//	VerifiedEmail – corporate email confirmed via a verification code.
//	IsActive      – whether the account is active.
//	CreatedAt     – timestamp of creation.
//	UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64
	Email         string
	PasswordHash  string
	Role          string
	VerifiedEmail *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Roles accepted in the users.role column.
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)
