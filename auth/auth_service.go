// Package auth implements the login and registration flow that feeds
// verified user identities into the token issuer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stevohstine/rolebase-access/token"
	"github.com/stevohstine/rolebase-access/users"
)

// Service verifies credentials and hands resolved users to the token issuer.
type Service struct {
	identity    users.IdentityRepo
	issuer      *token.Issuer
	defaultRole string
	log         zerolog.Logger
}

type ServiceOption func(*Service)

// WithDefaultRole sets the role granted to newly registered users.
func WithDefaultRole(role string) ServiceOption {
	return func(s *Service) {
		s.defaultRole = role
	}
}

func NewService(identity users.IdentityRepo, issuer *token.Issuer, log zerolog.Logger, options ...ServiceOption) (*Service, error) {
	if identity == nil {
		return nil, errors.New("identity repo is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}

	s := &Service{
		identity:    identity,
		issuer:      issuer,
		defaultRole: "Admin",
		log:         log,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates a user with a bcrypt password hash, grants the default
// role, and issues the first token pair.
func (s *Service) Register(ctx context.Context, email, username, password string) (*token.Pair, error) {
	existing, err := s.identity.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		DateJoined:   time.Now().UTC(),
	}
	if err := s.identity.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.defaultRole != "" {
		if err := s.identity.AddUserToRole(ctx, user, s.defaultRole); err != nil {
			if !errors.Is(err, users.ErrRoleNotFound) {
				return nil, fmt.Errorf("failed to grant default role: %w", err)
			}
			s.log.Warn().Str("role", s.defaultRole).Msg("default role does not exist, skipping grant")
		}
	}

	return s.issuer.Issue(ctx, user)
}

// Login verifies the password for the account registered under email and
// issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	user, err := s.identity.FindUserByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	return s.issuer.Issue(ctx, user)
}
