package users_test

import (
	"encoding/json"
	"testing"

	"github.com/stevohstine/rolebase-access/users"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := users.HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	require.True(t, users.CheckPasswordHash("s3cret", hash))
	require.False(t, users.CheckPasswordHash("wrong", hash))
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(&users.User{ID: "user-1", Email: "john.doe@example.com", PasswordHash: "$2a$10$hash"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "$2a$10$hash")
}
