package auth

import "errors"

var (
	ErrEmailInUse      = errors.New("email is already in use")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
)
