package token

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/stevohstine/rolebase-access/token/refresh"
	"github.com/stevohstine/rolebase-access/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const refreshTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"

// Pair is an issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer mints access/refresh token pairs. It is the only path that creates
// refresh token records.
type Issuer struct {
	assembler          *Assembler
	signer             *HMACSigner
	refreshRepo        refresh.Repo
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	refreshTokenLength int
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithRefreshTokenLength(length int) IssuerOption {
	return func(i *Issuer) {
		i.refreshTokenLength = length
	}
}

func NewIssuer(assembler *Assembler, signer *HMACSigner, refreshRepo refresh.Repo, options ...IssuerOption) *Issuer {
	i := &Issuer{
		assembler:   assembler,
		signer:      signer,
		refreshRepo: refreshRepo,
	}

	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry == 0 {
		i.accessTokenExpiry = 30 * time.Minute
	}
	if i.refreshTokenExpiry == 0 {
		i.refreshTokenExpiry = 182 * 24 * time.Hour
	}
	if i.refreshTokenLength == 0 {
		i.refreshTokenLength = 35
	}
	return i
}

// Issue assembles the user's claims, signs an access token expiring at
// now+accessTokenExpiry, and persists exactly one refresh token record bound
// to it by jti.
func (i *Issuer) Issue(ctx context.Context, user *users.User) (*Pair, error) {
	set, err := i.assembler.Assemble(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble claims: %w", err)
	}

	now := NowTimeFunc()
	signed, err := i.signer.Sign(set, now.Add(i.accessTokenExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	opaque, err := randomAlphanumeric(i.refreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rt := &refresh.StoredRefreshToken{
		Token:      opaque + uuid.New().String(),
		JwtID:      signed.ID,
		UserID:     user.ID,
		IsUsed:     false,
		IsRevoked:  false,
		AddedDate:  now,
		ExpiryDate: now.Add(i.refreshTokenExpiry),
	}
	if err := i.refreshRepo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Pair{AccessToken: signed.Raw, RefreshToken: rt.Token}, nil
}

func randomAlphanumeric(length int) (string, error) {
	max := big.NewInt(int64(len(refreshTokenAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = refreshTokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
