package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stevohstine/rolebase-access/auth"
	"github.com/stevohstine/rolebase-access/internal/config"
	"github.com/stevohstine/rolebase-access/server"
	"github.com/stevohstine/rolebase-access/token"
	refreshrepofake "github.com/stevohstine/rolebase-access/token/refresh/repofake"
	identityrepofake "github.com/stevohstine/rolebase-access/users/repofake"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	server *server.Server
	signer *token.HMACSigner
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{now: time.Now().Truncate(time.Second)}
	token.NowTimeFunc = func() time.Time { return ts.now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	identity := identityrepofake.NewFakeIdentityRepo()
	identity.AddRole("Admin")

	refreshRepo := refreshrepofake.NewFakeRefreshTokenRepo()
	ts.signer = token.NewHMACSigner(testSecret)
	issuer := token.NewIssuer(token.NewAssembler(identity), ts.signer, refreshRepo)
	rotator := token.NewRotator(ts.signer, refreshRepo, identity, issuer, zerolog.Nop())

	authService, err := auth.NewService(identity, issuer, zerolog.Nop())
	require.NoError(t, err)

	ts.server = server.New(config.New(), authService, rotator, ts.signer, zerolog.Nop())
	return ts
}

type authResponse struct {
	Success      bool     `json:"success"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Errors       []string `json:"errors"`
}

func (ts *testServer) postJSON(t *testing.T, route string, body string) (*httptest.ResponseRecorder, authResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, route, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	var result authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec, result
}

func (ts *testServer) register(t *testing.T, email, username, password string) authResponse {
	t.Helper()
	rec, result := ts.postJSON(t, server.RouteRegister,
		fmt.Sprintf(`{"email":%q,"username":%q,"password":%q}`, email, username, password))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, result.Success)
	return result
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	result := ts.register(t, "john.doe@example.com", "john", "s3cret")
	require.NotEmpty(t, result.Token)
	require.NotEmpty(t, result.RefreshToken)
	require.Empty(t, result.Errors)
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "john.doe@example.com", "john", "s3cret")

	rec, result := ts.postJSON(t, server.RouteRegister,
		`{"email":"john.doe@example.com","username":"johnny","password":"other"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, result.Success)
	require.Equal(t, []string{"Email is already in use"}, result.Errors)
}

func TestRegisterEndpointInvalidPayload(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{
		`{not json`,
		`{"email":"","username":"john","password":"s3cret"}`,
		`{"email":"john.doe@example.com","username":"john","password":""}`,
	} {
		rec, result := ts.postJSON(t, server.RouteRegister, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, []string{"Invalid payload"}, result.Errors)
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "john.doe@example.com", "john", "s3cret")

	rec, result := ts.postJSON(t, server.RouteLogin,
		`{"email":"john.doe@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, result.Success)
	require.NotEmpty(t, result.Token)
	require.NotEmpty(t, result.RefreshToken)
}

func TestLoginEndpointUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	rec, result := ts.postJSON(t, server.RouteLogin,
		`{"email":"ghost@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"User not found"}, result.Errors)
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "john.doe@example.com", "john", "s3cret")

	rec, result := ts.postJSON(t, server.RouteLogin,
		`{"email":"john.doe@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Invalid password"}, result.Errors)
}

func TestRefreshEndpointRotatesAndBlocksReplay(t *testing.T) {
	ts := newTestServer(t)
	first := ts.register(t, "john.doe@example.com", "john", "s3cret")

	ts.now = ts.now.Add(31 * time.Minute)

	body := fmt.Sprintf(`{"token":%q,"refreshToken":%q}`, first.Token, first.RefreshToken)

	rec, result := ts.postJSON(t, server.RouteRefresh, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, result.Success)
	require.NotEqual(t, first.Token, result.Token)
	require.NotEqual(t, first.RefreshToken, result.RefreshToken)

	rec, result = ts.postJSON(t, server.RouteRefresh, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Token has been used"}, result.Errors)
}

func TestRefreshEndpointRejectsLiveToken(t *testing.T) {
	ts := newTestServer(t)
	first := ts.register(t, "john.doe@example.com", "john", "s3cret")

	rec, result := ts.postJSON(t, server.RouteRefresh,
		fmt.Sprintf(`{"token":%q,"refreshToken":%q}`, first.Token, first.RefreshToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Token has not yet expired"}, result.Errors)
}

func TestRefreshEndpointInvalidPayload(t *testing.T) {
	ts := newTestServer(t)

	rec, result := ts.postJSON(t, server.RouteRefresh, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Invalid payload"}, result.Errors)

	rec, result = ts.postJSON(t, server.RouteRefresh, `{"token":"","refreshToken":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"Invalid payload"}, result.Errors)
}

func TestMeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	result := ts.register(t, "john.doe@example.com", "john", "s3cret")

	req := httptest.NewRequest(http.MethodGet, server.RouteMe, nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "john.doe@example.com")
}

func TestMeEndpointRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteMe, nil)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpointRejectsExpiredToken(t *testing.T) {
	ts := newTestServer(t)

	signed, err := ts.signer.Sign(token.ClaimSet{{Type: token.ClaimTypeTokenID, Value: "jti-1"}}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, server.RouteMe, nil)
	req.Header.Set("Authorization", "Bearer "+signed.Raw)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
