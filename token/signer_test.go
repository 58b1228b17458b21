package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stevohstine/rolebase-access/token"
	"github.com/stevohstine/rolebase-access/users"
	"github.com/stretchr/testify/require"
)

func TestSignDecodeRoundTrip(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	set := token.ClaimSet{
		{Type: token.ClaimTypeID, Value: testUserID},
		{Type: token.ClaimTypeTokenID, Value: "jti-1"},
	}
	expiresAt := time.Now().Add(time.Hour)

	signed, err := signer.Sign(set, expiresAt)
	require.NoError(t, err)
	require.Equal(t, "jti-1", signed.ID)
	require.Equal(t, expiresAt, signed.ExpiresAt)

	decoded, err := signer.Decode(signed.Raw, true)
	require.NoError(t, err)
	require.Equal(t, token.SigningAlgorithm, decoded.Algorithm)
	require.Equal(t, "jti-1", decoded.ID)
	require.Equal(t, expiresAt.Unix(), decoded.ExpiresAt.Unix())
	require.ElementsMatch(t, []users.Claim(set), []users.Claim(decoded.Claims))
}

func TestDecodeExpiredToken(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	signed, err := signer.Sign(token.ClaimSet{{Type: token.ClaimTypeTokenID, Value: "jti-1"}}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = signer.Decode(signed.Raw, true)
	require.Error(t, err)

	decoded, err := signer.Decode(signed.Raw, false)
	require.NoError(t, err)
	require.Equal(t, "jti-1", decoded.ID)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	signed, err := token.NewHMACSigner(testSecret).Sign(token.ClaimSet{{Type: token.ClaimTypeTokenID, Value: "jti-1"}}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = token.NewHMACSigner("a-different-secret").Decode(signed.Raw, true)
	require.Error(t, err)
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	signed, err := signer.Sign(token.ClaimSet{{Type: token.ClaimTypeID, Value: testUserID}}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	parts := strings.Split(signed.Raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + ".eyJpZCI6ImFkbWluIn0." + parts[2]

	_, err = signer.Decode(tampered, false)
	require.Error(t, err)
}

func TestDecodeRejectsUnsignedToken(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"jti": "jti-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = token.NewHMACSigner(testSecret).Decode(raw, false)
	require.Error(t, err)
}

func TestDecodeReportsHMACVariants(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"jti": "jti-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	decoded, err := token.NewHMACSigner(testSecret).Decode(raw, true)
	require.NoError(t, err)
	require.Equal(t, "HS384", decoded.Algorithm)
	require.NotEqual(t, token.SigningAlgorithm, decoded.Algorithm)
}
