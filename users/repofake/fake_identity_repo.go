package identityrepofake

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stevohstine/rolebase-access/users"
)

var _ users.IdentityRepo = (*FakeIdentityRepo)(nil)

// FakeIdentityRepo is an in-memory IdentityRepo for tests and local runs.
type FakeIdentityRepo struct {
	byID       map[string]*users.User
	byEmail    map[string]string // email -> user ID
	roles      map[string]*users.Role
	userClaims map[string][]users.Claim // user ID -> claims
	userRoles  map[string][]string      // user ID -> role names
	roleClaims map[string][]users.Claim // role ID -> claims
	lock       sync.RWMutex
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{
		byID:       make(map[string]*users.User),
		byEmail:    make(map[string]string),
		roles:      make(map[string]*users.Role),
		userClaims: make(map[string][]users.Claim),
		userRoles:  make(map[string][]string),
		roleClaims: make(map[string][]users.Claim),
	}
}

func (r *FakeIdentityRepo) FindUserByID(_ context.Context, id string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *FakeIdentityRepo) FindUserByEmail(_ context.Context, email string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *FakeIdentityRepo) GetUserClaims(_ context.Context, user *users.User) ([]users.Claim, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]users.Claim(nil), r.userClaims[user.ID]...), nil
}

func (r *FakeIdentityRepo) GetUserRoles(_ context.Context, user *users.User) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string(nil), r.userRoles[user.ID]...), nil
}

func (r *FakeIdentityRepo) FindRoleByName(_ context.Context, name string) (*users.Role, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return nil, users.ErrRoleNotFound
	}
	ro := *role
	return &ro, nil
}

func (r *FakeIdentityRepo) GetRoleClaims(_ context.Context, role *users.Role) ([]users.Claim, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]users.Claim(nil), r.roleClaims[role.ID]...), nil
}

func (r *FakeIdentityRepo) CreateUser(_ context.Context, user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	u := *user
	r.byID[u.ID] = &u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *FakeIdentityRepo) AddUserToRole(_ context.Context, user *users.User, roleName string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.roles[roleName]; !ok {
		return users.ErrRoleNotFound
	}
	r.userRoles[user.ID] = append(r.userRoles[user.ID], roleName)
	return nil
}

// RemoveUser deletes a user, mimicking an account removed while a refresh
// token for it is still outstanding.
func (r *FakeIdentityRepo) RemoveUser(id string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if user, ok := r.byID[id]; ok {
		delete(r.byEmail, user.Email)
		delete(r.byID, id)
	}
}

// AddRole registers a role so that FindRoleByName and AddUserToRole can see it.
func (r *FakeIdentityRepo) AddRole(name string) *users.Role {
	r.lock.Lock()
	defer r.lock.Unlock()
	role := &users.Role{ID: uuid.New().String(), Name: name}
	r.roles[name] = role
	return role
}

// RemoveRole deletes a role definition while leaving user role memberships in
// place, mimicking a role deleted after assignment.
func (r *FakeIdentityRepo) RemoveRole(name string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.roles, name)
}

func (r *FakeIdentityRepo) AddUserClaim(userID string, claim users.Claim) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.userClaims[userID] = append(r.userClaims[userID], claim)
}

func (r *FakeIdentityRepo) AddRoleClaim(roleID string, claim users.Claim) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.roleClaims[roleID] = append(r.roleClaims[roleID], claim)
}
