package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stevohstine/rolebase-access/users"
)

// Claim types emitted by the assembler. Every issued token carries the four
// mandatory claims; user and role claims follow with whatever types the
// identity store holds for them.
const (
	ClaimTypeID      = "id"
	ClaimTypeEmail   = "email"
	ClaimTypeSubject = "sub"
	ClaimTypeTokenID = "jti"
	ClaimTypeRole    = "role"
)

// ClaimSet is an ordered collection of (type, value) pairs. Duplicate types
// are allowed; insertion order is preserved into the signed token but carries
// no semantic meaning.
type ClaimSet []users.Claim

// First returns the first claim of the given type.
func (cs ClaimSet) First(claimType string) (string, bool) {
	for _, c := range cs {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// MapClaims converts the set into jwt.MapClaims. Claims sharing a type fold
// into a string slice so none are lost in the map representation.
func (cs ClaimSet) MapClaims() jwt.MapClaims {
	mc := jwt.MapClaims{}
	for _, c := range cs {
		existing, ok := mc[c.Type]
		if !ok {
			mc[c.Type] = c.Value
			continue
		}
		switch v := existing.(type) {
		case string:
			mc[c.Type] = []string{v, c.Value}
		case []string:
			mc[c.Type] = append(v, c.Value)
		}
	}
	return mc
}

// ClaimSetFromMap flattens decoded jwt.MapClaims back into a ClaimSet. The
// "exp" claim is skipped, expiry travels on DecodedToken instead.
func ClaimSetFromMap(mc jwt.MapClaims) ClaimSet {
	var set ClaimSet
	for claimType, value := range mc {
		if claimType == "exp" {
			continue
		}
		switch v := value.(type) {
		case string:
			set = append(set, users.Claim{Type: claimType, Value: v})
		case []string:
			for _, s := range v {
				set = append(set, users.Claim{Type: claimType, Value: s})
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					set = append(set, users.Claim{Type: claimType, Value: s})
				}
			}
		case float64:
			set = append(set, users.Claim{Type: claimType, Value: strconv.FormatInt(int64(v), 10)})
		}
	}
	return set
}

// Assembler builds the claim set for an authenticated user from the injected
// identity/role lookups.
type Assembler struct {
	identity users.IdentityRepo
}

func NewAssembler(identity users.IdentityRepo) *Assembler {
	return &Assembler{identity: identity}
}

// Assemble emits the four mandatory claims (id, email, subject, a fresh token
// id), then the user's directly assigned claims, then for each role that
// still exists a role membership claim followed by the role's claims. Roles
// deleted since assignment are skipped silently.
func (a *Assembler) Assemble(ctx context.Context, user *users.User) (ClaimSet, error) {
	set := ClaimSet{
		{Type: ClaimTypeID, Value: user.ID},
		{Type: ClaimTypeEmail, Value: user.Email},
		{Type: ClaimTypeSubject, Value: user.Email},
		{Type: ClaimTypeTokenID, Value: uuid.New().String()},
	}

	userClaims, err := a.identity.GetUserClaims(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user claims: %w", err)
	}
	set = append(set, userClaims...)

	roleNames, err := a.identity.GetUserRoles(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	for _, name := range roleNames {
		role, err := a.identity.FindRoleByName(ctx, name)
		if errors.Is(err, users.ErrRoleNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find role %q: %w", name, err)
		}

		set = append(set, users.Claim{Type: ClaimTypeRole, Value: name})

		roleClaims, err := a.identity.GetRoleClaims(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("failed to get claims for role %q: %w", name, err)
		}
		set = append(set, roleClaims...)
	}

	return set, nil
}
