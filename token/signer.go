package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// SigningAlgorithm is the only algorithm issued tokens are signed with.
// Redemption pins the header algorithm to this value to reject
// algorithm-substitution attempts.
var SigningAlgorithm = jwt.SigningMethodHS256.Alg()

// HMACSigner signs and decodes access tokens with a shared symmetric secret.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{
		secret: []byte(secret),
	}
}

// SignedToken is the result of signing a claim set.
type SignedToken struct {
	Raw       string
	ID        string // the jti claim
	ExpiresAt time.Time
}

// Sign serializes the claim set with the given expiry into a signed compact
// token.
func (h *HMACSigner) Sign(set ClaimSet, expiresAt time.Time) (*SignedToken, error) {
	claims := set.MapClaims()
	claims["exp"] = expiresAt.Unix()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign token with HMAC")
	}

	id, _ := set.First(ClaimTypeTokenID)
	return &SignedToken{Raw: raw, ID: id, ExpiresAt: expiresAt}, nil
}

// DecodedToken is a structurally valid, signature-checked token.
type DecodedToken struct {
	Algorithm string
	Claims    ClaimSet
	ID        string // the jti claim, empty if absent
	ExpiresAt time.Time
}

// Decode verifies the token's structure and signature. checkExpiry selects
// whether the exp claim is enforced; the refresh protocol decodes with it
// disabled since it must inspect tokens that are already expired. The flag is
// an explicit parameter so validation behavior never leaks between callers.
//
// Any token signed with a non-HMAC key fails verification here; HMAC variants
// other than HS256 decode successfully and are reported via Algorithm for the
// caller to reject.
func (h *HMACSigner) Decode(raw string, checkExpiry bool) (*DecodedToken, error) {
	var opts []jwt.ParserOption
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.NewParser(opts...).Parse(raw, h.verificationKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims from token")
	}

	decoded := &DecodedToken{
		Algorithm: parsed.Method.Alg(),
		Claims:    ClaimSetFromMap(mc),
	}
	decoded.ID, _ = decoded.Claims.First(ClaimTypeTokenID)

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		decoded.ExpiresAt = exp.Time
	}

	return decoded, nil
}

func (h *HMACSigner) verificationKey(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return h.secret, nil
}
