package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the resolved identity handed to the token layer. PasswordHash is
// server-side only and never serialized.
type User struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email,omitempty"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined,omitempty"`
}

// Role is a named grouping of users. Claims attached to a role apply to every
// member of that role at token issuance time.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Claim is a single (type, value) assertion about a user or a role.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
