package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/taxischool/internal/model"
)

// UserRepo reads and upserts accounts in the users table.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo creates a UserRepo backed by db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,first_name,last_name,phone,role,is_active,created_at,updated_at"

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// UpsertUser inserts u or, for a known email, fills only the blank name
// and phone columns.  u is overwritten with the stored row.
func (r *UserRepo) UpsertUser(ctx context.Context, u *model.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	const q = `INSERT INTO users (email, password_hash, first_name, last_name, phone, role, is_active)
               VALUES (?,?,?,?,?,?,?)
               ON DUPLICATE KEY UPDATE
                 first_name = IF(first_name = '', VALUES(first_name), first_name),
                 last_name  = IF(last_name  = '', VALUES(last_name),  last_name),
                 phone      = IF(phone      = '', VALUES(phone),      phone)`
	if _, err := r.DB.ExecContext(ctx, q, email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, role, true); err != nil {
		return translate(err)
	}
	stored, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}
