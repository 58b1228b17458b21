// Package refresh declares the persisted refresh-token store the rotation
// protocol depends on.
package refresh

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Find when no record exists for the token.
	ErrNotFound = errors.New("refresh token not found")
	// ErrAlreadyUsed is returned by MarkUsed when the record was already
	// redeemed; concurrent redemptions of the same token surface it to the
	// losing caller.
	ErrAlreadyUsed = errors.New("refresh token already used")
	// ErrRevoked is returned by MarkUsed when the record was revoked between
	// lookup and redemption.
	ErrRevoked = errors.New("refresh token revoked")
)

// StoredRefreshToken is the server-side record of an issued refresh token.
// The client only ever sees the Token field; everything else is validation
// metadata. Records are never deleted by this service, a redeemed token stays
// behind with IsUsed set for audit and replay detection.
type StoredRefreshToken struct {
	Token      string    // Opaque random string handed to the client, primary lookup key
	JwtID      string    // jti of the access token issued alongside
	UserID     string    // Owner
	IsUsed     bool      // Set once, on first successful redemption
	IsRevoked  bool      // Set by administrative action only
	AddedDate  time.Time
	ExpiryDate time.Time
}

// Repo manages server-side storage of refresh tokens.
//
// MarkUsed must be atomic per token value: of two concurrent calls for the
// same token exactly one succeeds, the other observes ErrAlreadyUsed.
type Repo interface {
	Create(ctx context.Context, token *StoredRefreshToken) error
	Find(ctx context.Context, token string) (*StoredRefreshToken, error)
	MarkUsed(ctx context.Context, token string) error
	Revoke(ctx context.Context, token string) error
}
