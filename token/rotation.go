package token

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stevohstine/rolebase-access/token/refresh"
	"github.com/stevohstine/rolebase-access/users"
)

// Rotator runs the refresh protocol: it validates an (expired access token,
// refresh token) pair against the ordered checks below and, when every check
// passes, permanently marks the refresh token used and mints a new pair.
type Rotator struct {
	signer      *HMACSigner
	refreshRepo refresh.Repo
	identity    users.IdentityRepo
	issuer      *Issuer
	log         zerolog.Logger
}

func NewRotator(signer *HMACSigner, refreshRepo refresh.Repo, identity users.IdentityRepo, issuer *Issuer, log zerolog.Logger) *Rotator {
	return &Rotator{
		signer:      signer,
		refreshRepo: refreshRepo,
		identity:    identity,
		issuer:      issuer,
		log:         log,
	}
}

// Redeem exchanges an expired access token and its paired refresh token for a
// new pair. Each check either passes or fails the call with a *RedeemError;
// collaborator failures are logged and surface as ErrInternal. Nothing is
// retried within a single call.
//
// The old refresh token record stays in the store, marked used, for audit and
// replay detection. Once marked used it is never un-marked, even when the
// subsequent re-issue fails -- the caller must log in again in that case.
func (r *Rotator) Redeem(ctx context.Context, accessToken, refreshToken string) (*Pair, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMalformedRequest
	}

	// Check 1: signature and structure, with expiry checking disabled so an
	// expired token still verifies.
	decoded, err := r.signer.Decode(accessToken, false)
	if err != nil {
		return nil, ErrMalformedToken
	}

	// Check 2: the header algorithm must be exactly the issued one.
	if decoded.Algorithm != SigningAlgorithm {
		return nil, ErrAlgorithmMismatch
	}

	// Check 3: only an already expired access token may be exchanged here.
	if decoded.ExpiresAt.IsZero() {
		return nil, ErrMalformedToken
	}
	if decoded.ExpiresAt.After(NowTimeFunc()) {
		return nil, ErrTokenNotYetExpired
	}

	// Check 4: the refresh token must exist.
	stored, err := r.refreshRepo.Find(ctx, refreshToken)
	if errors.Is(err, refresh.ErrNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, r.collaboratorFailure("refresh token lookup", err)
	}

	// Check 5: a used token signals possible replay.
	if stored.IsUsed {
		return nil, ErrRefreshTokenUsed
	}

	// Check 6: revocation is permanent.
	if stored.IsRevoked {
		return nil, ErrRefreshTokenRevoked
	}

	// Check 7: the refresh token must be bound to the presented access token.
	if decoded.ID == "" || stored.JwtID != decoded.ID {
		return nil, ErrTokenPairMismatch
	}

	// Check 8: the stored record's own expiry.
	if stored.ExpiryDate.Before(NowTimeFunc()) {
		return nil, ErrRefreshTokenExpired
	}

	// The store's compare-and-swap decides races: of concurrent redemptions
	// of the same token, exactly one passes this point.
	if err := r.refreshRepo.MarkUsed(ctx, stored.Token); err != nil {
		switch {
		case errors.Is(err, refresh.ErrAlreadyUsed):
			return nil, ErrRefreshTokenUsed
		case errors.Is(err, refresh.ErrRevoked):
			return nil, ErrRefreshTokenRevoked
		case errors.Is(err, refresh.ErrNotFound):
			return nil, ErrRefreshTokenNotFound
		default:
			return nil, r.collaboratorFailure("mark refresh token used", err)
		}
	}

	user, err := r.identity.FindUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, r.collaboratorFailure("refresh token owner lookup", err)
	}

	pair, err := r.issuer.Issue(ctx, user)
	if err != nil {
		return nil, r.collaboratorFailure("reissue token pair", err)
	}

	return pair, nil
}

func (r *Rotator) collaboratorFailure(op string, err error) error {
	r.log.Error().Err(err).Str("op", op).Msg("token redemption failed on a collaborator")
	return ErrInternal
}
