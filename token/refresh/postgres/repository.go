// Package refreshpg provides the PostgreSQL-backed refresh token store.
package refreshpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stevohstine/rolebase-access/internal/dbx"
	"github.com/stevohstine/rolebase-access/token/refresh"
)

// Repository implements refresh.Repo over dbx.DBTX (satisfied by *sql.DB or
// *sql.Tx).
type Repository struct {
	db dbx.DBTX
}

var _ refresh.Repo = (*Repository)(nil)

func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, token *refresh.StoredRefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, jwt_id, user_id, is_used, is_revoked, added_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.Token, token.JwtID, token.UserID, token.IsUsed, token.IsRevoked, token.AddedDate, token.ExpiryDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) Find(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	query := `
		SELECT token, jwt_id, user_id, is_used, is_revoked, added_date, expiry_date
		FROM refresh_tokens
		WHERE token = $1
	`
	rt := &refresh.StoredRefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.Token, &rt.JwtID, &rt.UserID, &rt.IsUsed, &rt.IsRevoked, &rt.AddedDate, &rt.ExpiryDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, refresh.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// MarkUsed flips is_used with a compare-and-swap so that two concurrent
// redemptions of the same token cannot both succeed. When the guard misses it
// re-reads the row to report why.
func (r *Repository) MarkUsed(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = TRUE
		WHERE token = $1 AND is_used = FALSE AND is_revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 1 {
		return nil
	}

	rt, err := r.Find(ctx, token)
	if err != nil {
		return err
	}
	switch {
	case rt.IsUsed:
		return refresh.ErrAlreadyUsed
	case rt.IsRevoked:
		return refresh.ErrRevoked
	}
	return fmt.Errorf("db error: mark used affected no rows for an eligible token")
}

func (r *Repository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = TRUE
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return refresh.ErrNotFound
	}
	return nil
}
