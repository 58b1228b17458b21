// Package identitypg provides the PostgreSQL-backed identity/role provider.
package identitypg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stevohstine/rolebase-access/internal/dbx"
	"github.com/stevohstine/rolebase-access/users"
)

// Repository implements users.IdentityRepo over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type Repository struct {
	db dbx.DBTX
}

var _ users.IdentityRepo = (*Repository)(nil)

func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (*users.User, error) {
	query := `
		SELECT id, email, username, password_hash, date_joined
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `
		SELECT id, email, username, password_hash, date_joined
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repository) scanUser(row *sql.Row) (*users.User, error) {
	user := &users.User{}
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.DateJoined); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *Repository) GetUserClaims(ctx context.Context, user *users.User) ([]users.Claim, error) {
	query := `
		SELECT claim_type, claim_value
		FROM user_claims
		WHERE user_id = $1
		ORDER BY added_date
	`
	return r.queryClaims(ctx, query, user.ID)
}

func (r *Repository) GetUserRoles(ctx context.Context, user *users.User) ([]string, error) {
	query := `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`
	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *Repository) FindRoleByName(ctx context.Context, name string) (*users.Role, error) {
	query := `
		SELECT id, name
		FROM roles
		WHERE name = $1
	`
	role := &users.Role{}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrRoleNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

func (r *Repository) GetRoleClaims(ctx context.Context, role *users.Role) ([]users.Claim, error) {
	query := `
		SELECT claim_type, claim_value
		FROM role_claims
		WHERE role_id = $1
		ORDER BY added_date
	`
	return r.queryClaims(ctx, query, role.ID)
}

func (r *Repository) CreateUser(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, date_joined)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Username, user.PasswordHash, user.DateJoined); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) AddUserToRole(ctx context.Context, user *users.User, roleName string) error {
	role, err := r.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, role.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) queryClaims(ctx context.Context, query string, key string) ([]users.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var claims []users.Claim
	for rows.Next() {
		var c users.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
