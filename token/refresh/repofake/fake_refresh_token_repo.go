package refreshrepofake

import (
	"context"
	"sync"

	"github.com/stevohstine/rolebase-access/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

// FakeRefreshTokenRepo is an in-memory refresh.Repo. MarkUsed performs the
// same compare-and-swap the Postgres implementation does, under a mutex, so
// rotation race tests behave like production.
type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken
	lock   sync.Mutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Create(_ context.Context, token *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	t := *token
	tr.tokens[t.Token] = &t
	return nil
}

func (tr *FakeRefreshTokenRepo) Find(_ context.Context, token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	t := *rt
	return &t, nil
}

func (tr *FakeRefreshTokenRepo) MarkUsed(_ context.Context, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	switch {
	case !ok:
		return refresh.ErrNotFound
	case rt.IsUsed:
		return refresh.ErrAlreadyUsed
	case rt.IsRevoked:
		return refresh.ErrRevoked
	}
	rt.IsUsed = true
	return nil
}

func (tr *FakeRefreshTokenRepo) Revoke(_ context.Context, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return refresh.ErrNotFound
	}
	rt.IsRevoked = true
	return nil
}
