package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stevohstine/rolebase-access/token"
	"github.com/stevohstine/rolebase-access/token/refresh"
	refreshrepofake "github.com/stevohstine/rolebase-access/token/refresh/repofake"
	"github.com/stevohstine/rolebase-access/users"
	identityrepofake "github.com/stevohstine/rolebase-access/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	testUserID    = "user-1"
	testUserEmail = "john.doe@example.com"
)

// testClock drives token.NowTimeFunc so tests can issue tokens in the past
// and redeem them "now".
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	identity    *identityrepofake.FakeIdentityRepo
	refreshRepo *refreshrepofake.FakeRefreshTokenRepo
	signer      *token.HMACSigner
	assembler   *token.Assembler
	issuer      *token.Issuer
	rotator     *token.Rotator
	clock       *testClock
	user        *users.User
}

func newFixture(t *testing.T, options ...token.IssuerOption) *fixture {
	t.Helper()

	clock := &testClock{now: time.Now().Truncate(time.Second)}
	token.NowTimeFunc = clock.Now
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	identity := identityrepofake.NewFakeIdentityRepo()
	user := &users.User{ID: testUserID, Email: testUserEmail, Username: "john"}
	require.NoError(t, identity.CreateUser(context.Background(), user))

	refreshRepo := refreshrepofake.NewFakeRefreshTokenRepo()
	signer := token.NewHMACSigner(testSecret)
	assembler := token.NewAssembler(identity)
	issuer := token.NewIssuer(assembler, signer, refreshRepo, options...)
	rotator := token.NewRotator(signer, refreshRepo, identity, issuer, zerolog.Nop())

	return &fixture{
		identity:    identity,
		refreshRepo: refreshRepo,
		signer:      signer,
		assembler:   assembler,
		issuer:      issuer,
		rotator:     rotator,
		clock:       clock,
		user:        user,
	}
}

func (f *fixture) issue(t *testing.T) *token.Pair {
	t.Helper()
	pair, err := f.issuer.Issue(context.Background(), f.user)
	require.NoError(t, err)
	return pair
}

func (f *fixture) storedToken(t *testing.T, refreshToken string) *refresh.StoredRefreshToken {
	t.Helper()
	rt, err := f.refreshRepo.Find(context.Background(), refreshToken)
	require.NoError(t, err)
	return rt
}
