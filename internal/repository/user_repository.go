package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/masterfabric/onboarding-events/internal/model"
	"github.com/masterfabric/onboarding-events/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "email=?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, "id=?", id)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (model.User, error) {
	var (
		u        model.User
		verified sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,verified_email,is_active,created_at,updated_at FROM users WHERE "+where+" LIMIT 1",
		arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &verified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if verified.Valid {
		v := verified.String
		u.VerifiedEmail = &v
	}
	return u, err
}

// SetVerifiedEmail writes the confirmed corporate email onto the profile
// after a successful code consume.
func (r *UserRepo) SetVerifiedEmail(ctx context.Context, id uint64, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET verified_email=? WHERE id=?", email, id)
	return err
}
