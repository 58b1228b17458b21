package token

import "errors"

// RedeemReason identifies which protocol check a redemption failed on.
type RedeemReason string

const (
	ReasonMalformedRequest     RedeemReason = "malformed_refresh_request"
	ReasonMalformedToken       RedeemReason = "malformed_token"
	ReasonAlgorithmMismatch    RedeemReason = "algorithm_mismatch"
	ReasonTokenNotYetExpired   RedeemReason = "access_token_not_yet_expired"
	ReasonRefreshTokenNotFound RedeemReason = "refresh_token_not_found"
	ReasonRefreshTokenUsed     RedeemReason = "refresh_token_already_used"
	ReasonRefreshTokenRevoked  RedeemReason = "refresh_token_revoked"
	ReasonTokenPairMismatch    RedeemReason = "token_pair_mismatch"
	ReasonRefreshTokenExpired  RedeemReason = "refresh_token_expired"
)

// RedeemError is a semantic protocol failure. It is always recoverable by the
// caller through a fresh login. Message is the client-facing wording.
type RedeemError struct {
	Reason  RedeemReason
	Message string
}

func (e *RedeemError) Error() string { return string(e.Reason) }

func (e *RedeemError) Is(target error) bool {
	t, ok := target.(*RedeemError)
	return ok && t.Reason == e.Reason
}

var (
	ErrMalformedRequest     = &RedeemError{Reason: ReasonMalformedRequest, Message: "Invalid payload"}
	ErrMalformedToken       = &RedeemError{Reason: ReasonMalformedToken, Message: "Invalid tokens"}
	ErrAlgorithmMismatch    = &RedeemError{Reason: ReasonAlgorithmMismatch, Message: "Invalid tokens"}
	ErrTokenNotYetExpired   = &RedeemError{Reason: ReasonTokenNotYetExpired, Message: "Token has not yet expired"}
	ErrRefreshTokenNotFound = &RedeemError{Reason: ReasonRefreshTokenNotFound, Message: "Token does not exist"}
	ErrRefreshTokenUsed     = &RedeemError{Reason: ReasonRefreshTokenUsed, Message: "Token has been used"}
	ErrRefreshTokenRevoked  = &RedeemError{Reason: ReasonRefreshTokenRevoked, Message: "Token has been revoked"}
	ErrTokenPairMismatch    = &RedeemError{Reason: ReasonTokenPairMismatch, Message: "Token doesn't match"}
	ErrRefreshTokenExpired  = &RedeemError{Reason: ReasonRefreshTokenExpired, Message: "Refresh token has expired"}
)

// ErrInternal is the generic collaborator failure. It deliberately carries no
// reason code so clients cannot distinguish infrastructure trouble from a
// legitimately invalid token; details go to the log only.
var ErrInternal = errors.New("something went wrong")

// AsRedeemError unwraps err into a *RedeemError if it is one.
func AsRedeemError(err error) (*RedeemError, bool) {
	var re *RedeemError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
