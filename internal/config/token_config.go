package config

import (
	"time"
)

type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetCollaboratorTimeout() time.Duration
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return getDurationEnv("ACCESS_TOKEN_TTL", 30*time.Minute)
}

// GetRefreshTokenExpiry defaults to six months (182 days).
func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return getDurationEnv("REFRESH_TOKEN_TTL", 182*24*time.Hour)
}

func (Tokens) GetRefreshTokenLength() int {
	return 35
}

// GetCollaboratorTimeout bounds calls into the database and identity lookups.
func (Tokens) GetCollaboratorTimeout() time.Duration {
	return getDurationEnv("COLLABORATOR_TIMEOUT", 5*time.Second)
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
