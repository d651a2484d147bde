package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unieval/course-review-api/internal/models"
)

// UserRepository handles persistence of accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	const query = `SELECT user_id, email, password_hash, first_name, last_name, role,
verified, locked, deleted, failed_logins, verification_token, created_at, updated_at
FROM users WHERE user_id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create persists a new account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users
(user_id, email, password_hash, first_name, last_name, role, verified, locked, deleted, failed_logins, verification_token, created_at, updated_at)
VALUES (:user_id, :email, :password_hash, :first_name, :last_name, :role, :verified, :locked, :deleted, :failed_logins, :verification_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// RecordLoginFailure bumps the failure counter and returns the new value,
// locking the account once the counter passes the threshold.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (int, error) {
	const query = `UPDATE users SET failed_logins = failed_logins + 1,
locked = (failed_logins + 1 > $2),
updated_at = $3
WHERE user_id = $1
RETURNING failed_logins`
	var failures int
	if err := r.db.GetContext(ctx, &failures, query, userID, lockThreshold, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}
	return failures, nil
}

// ResetLoginFailures clears the failure counter after a successful login.
func (r *UserRepository) ResetLoginFailures(ctx context.Context, userID string) error {
	const query = `UPDATE users SET failed_logins = 0, updated_at = $2 WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}

// Verify activates the account matching the verification token. Returns
// sql.ErrNoRows when the token is unknown or already used.
func (r *UserRepository) Verify(ctx context.Context, token string) error {
	const query = `UPDATE users SET verified = TRUE, verification_token = NULL, updated_at = $2
WHERE verification_token = $1 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify user result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SoftDelete marks the account deleted; a deleted account cannot log in.
func (r *UserRepository) SoftDelete(ctx context.Context, userID string) error {
	const query = `UPDATE users SET deleted = TRUE, updated_at = $2 WHERE user_id = $1 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns non-deleted users for the admin dashboard.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	clause := " WHERE deleted = FALSE"
	args := []interface{}{}

	if filter.Search != "" {
		clause += " AND (user_id ILIKE $1 OR email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)"
		args = append(args, "%"+filter.Search+"%")
	}

	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT user_id, email, password_hash, first_name, last_name, role,
verified, locked, deleted, failed_logins, verification_token, created_at, updated_at
FROM users%s ORDER BY user_id ASC LIMIT %d OFFSET %d`, clause, limit, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// SetLocked updates the lock flag, clearing the failure counter on unlock.
func (r *UserRepository) SetLocked(ctx context.Context, userID string, locked bool) error {
	const query = `UPDATE users SET locked = $2,
failed_logins = CASE WHEN $2 THEN failed_logins ELSE 0 END,
updated_at = $3
WHERE user_id = $1 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID, locked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set user lock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user lock result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetRole changes the account's access tier.
func (r *UserRepository) SetRole(ctx context.Context, userID string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE user_id = $1 AND deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user role result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
