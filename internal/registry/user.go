package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/google/uuid"
)

var (
	ErrDuplicateUsername  = errors.New("duplicate username")
	ErrLastAdmin          = errors.New("last admin protected")
	ErrDefaultAdmin       = errors.New("default admin protected")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultAdminID identifies the seeded admin record that can never be deleted
// and can only be edited by itself. A fixed id keeps restores and re-seeds in
// agreement about which record is protected.
const DefaultAdminID = "00000000-0000-0000-0000-000000000001"

func seedUsers() []models.User {
	return []models.User{{
		ID:         DefaultAdminID,
		Username:   "admin",
		Credential: "admin",
		Role:       models.RoleAdmin,
	}}
}

type UserRegistry struct {
	slot *store.Slot[[]models.User]
}

func NewUserRegistry(ctx context.Context, kv store.KV, bus *events.Bus) *UserRegistry {
	r := &UserRegistry{
		slot: store.NewSlot(ctx, kv, bus, store.KeyUsers, seedUsers),
	}
	// A hydrated-but-empty slot still gets the default admin.
	if len(r.slot.Get()) == 0 {
		_ = r.slot.Set(ctx, seedUsers())
	}
	return r
}

type UserInput struct {
	Username   string
	Credential string
	Role       string
}

type UserPatch struct {
	Username   *string
	Credential *string
	Role       *string
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleEmployee, models.RoleEmployeeReturn:
		return true
	}
	return false
}

func (r *UserRegistry) List() []models.User {
	return r.slot.Get()
}

func (r *UserRegistry) GetByID(id string) (*models.User, bool) {
	for _, u := range r.slot.Get() {
		if u.ID == id {
			return &u, true
		}
	}
	return nil, false
}

func (r *UserRegistry) adminCount() int {
	n := 0
	for _, u := range r.slot.Get() {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}

func (r *UserRegistry) Add(ctx context.Context, in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Credential == "" {
		return nil, fmt.Errorf("username and credential are required: %w", ErrValidation)
	}
	if !validRole(in.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, ErrValidation)
	}

	users := r.slot.Get()
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return nil, ErrDuplicateUsername
		}
	}

	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Credential: in.Credential,
		Role:       in.Role,
	}

	next := make([]models.User, 0, len(users)+1)
	next = append(next, users...)
	next = append(next, user)
	if err := r.slot.Set(ctx, next); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRegistry) Update(ctx context.Context, actorID, id string, patch UserPatch) (*models.User, error) {
	users := r.slot.Get()
	idx := -1
	for i, u := range users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	if id == DefaultAdminID && actorID != id {
		return nil, ErrDefaultAdmin
	}

	if patch.Role != nil {
		if !validRole(*patch.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *patch.Role, ErrValidation)
		}
		if *patch.Role != models.RoleAdmin &&
			users[idx].Role == models.RoleAdmin && r.adminCount() == 1 {
			return nil, ErrLastAdmin
		}
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return nil, fmt.Errorf("username is required: %w", ErrValidation)
		}
		for i, u := range users {
			if i != idx && strings.EqualFold(u.Username, username) {
				return nil, ErrDuplicateUsername
			}
		}
	}

	next := make([]models.User, len(users))
	copy(next, users)

	u := &next[idx]
	if patch.Username != nil {
		u.Username = strings.TrimSpace(*patch.Username)
	}
	// A blank credential in the patch means "leave it unchanged".
	if patch.Credential != nil && strings.TrimSpace(*patch.Credential) != "" {
		u.Credential = *patch.Credential
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}

	if err := r.slot.Set(ctx, next); err != nil {
		return nil, err
	}
	updated := *u
	return &updated, nil
}

func (r *UserRegistry) Delete(ctx context.Context, id string) error {
	users := r.slot.Get()
	idx := -1
	for i, u := range users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if id == DefaultAdminID {
		return ErrDefaultAdmin
	}
	if users[idx].Role == models.RoleAdmin && r.adminCount() == 1 {
		return ErrLastAdmin
	}

	next := make([]models.User, 0, len(users)-1)
	next = append(next, users[:idx]...)
	next = append(next, users[idx+1:]...)
	return r.slot.Set(ctx, next)
}

// Authenticate matches username and credential verbatim.
func (r *UserRegistry) Authenticate(username, credential string) (*models.User, error) {
	for _, u := range r.slot.Get() {
		if u.Username == username && u.Credential == credential {
			match := u
			return &match, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// EnsureSeeded restores the default admin if the registry has become empty,
// e.g. after restoring a backup with an empty user list.
func (r *UserRegistry) EnsureSeeded(ctx context.Context) error {
	if len(r.slot.Get()) > 0 {
		return nil
	}
	return r.slot.Set(ctx, seedUsers())
}
