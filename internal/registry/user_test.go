package registry

import (
	"context"
	"testing"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserRegistry(t *testing.T) *UserRegistry {
	t.Helper()
	return NewUserRegistry(context.Background(), store.NewMemoryKV(), events.NewBus())
}

func TestUserRegistry_SeedsDefaultAdmin(t *testing.T) {
	t.Parallel()

	r := newTestUserRegistry(t)

	users := r.List()
	require.Len(t, users, 1)
	assert.Equal(t, DefaultAdminID, users[0].ID)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestUserRegistry_SeedsEmptyHydratedSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Save(ctx, store.KeyUsers, []byte(`[]`)))

	r := NewUserRegistry(ctx, kv, events.NewBus())
	require.Len(t, r.List(), 1)
	assert.Equal(t, DefaultAdminID, r.List()[0].ID)
}

func TestUserRegistry_Add(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestUserRegistry(t)

	u, err := r.Add(ctx, UserInput{Username: "alice", Credential: "pw", Role: models.RoleEmployee})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Len(t, r.List(), 2)

	_, err = r.Add(ctx, UserInput{Username: "ALICE", Credential: "pw", Role: models.RoleEmployee})
	require.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = r.Add(ctx, UserInput{Username: "bob", Credential: "pw", Role: "owner"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = r.Add(ctx, UserInput{Username: "  ", Credential: "pw", Role: models.RoleEmployee})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserRegistry_DefaultAdminProtections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestUserRegistry(t)

	// Deleting the default admin always fails, even with other admins present.
	other, err := r.Add(ctx, UserInput{Username: "root2", Credential: "pw", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.ErrorIs(t, r.Delete(ctx, DefaultAdminID), ErrDefaultAdmin)

	// Only the default admin may edit itself.
	name := "superadmin"
	_, err = r.Update(ctx, other.ID, DefaultAdminID, UserPatch{Username: &name})
	require.ErrorIs(t, err, ErrDefaultAdmin)

	updated, err := r.Update(ctx, DefaultAdminID, DefaultAdminID, UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "superadmin", updated.Username)
}

func TestUserRegistry_LastAdminProtections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestUserRegistry(t)

	// The sole admin cannot be demoted.
	role := models.RoleEmployee
	_, err := r.Update(ctx, DefaultAdminID, DefaultAdminID, UserPatch{Role: &role})
	require.ErrorIs(t, err, ErrLastAdmin)

	// With a second admin the demotion goes through.
	second, err := r.Add(ctx, UserInput{Username: "root2", Credential: "pw", Role: models.RoleAdmin})
	require.NoError(t, err)
	updated, err := r.Update(ctx, DefaultAdminID, DefaultAdminID, UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, updated.Role)

	// second is now the sole admin: deleting it would leave none.
	require.ErrorIs(t, r.Delete(ctx, second.ID), ErrLastAdmin)
}

func TestUserRegistry_Update_BlankCredentialKeepsOld(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestUserRegistry(t)
	u, err := r.Add(ctx, UserInput{Username: "alice", Credential: "secret", Role: models.RoleEmployee})
	require.NoError(t, err)

	blank := "   "
	updated, err := r.Update(ctx, DefaultAdminID, u.ID, UserPatch{Credential: &blank})
	require.NoError(t, err)
	assert.Equal(t, "secret", updated.Credential)

	fresh := "rotated"
	updated, err = r.Update(ctx, DefaultAdminID, u.ID, UserPatch{Credential: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "rotated", updated.Credential)
}

func TestUserRegistry_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestUserRegistry(t)
	u, err := r.Add(ctx, UserInput{Username: "alice", Credential: "pw", Role: models.RoleEmployee})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, u.ID))
	_, ok := r.GetByID(u.ID)
	assert.False(t, ok)

	require.ErrorIs(t, r.Delete(ctx, u.ID), ErrNotFound)
}

func TestUserRegistry_Authenticate(t *testing.T) {
	t.Parallel()

	r := newTestUserRegistry(t)

	u, err := r.Authenticate("admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminID, u.ID)

	_, err = r.Authenticate("admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Match is verbatim, not case-folded.
	_, err = r.Authenticate("ADMIN", "admin")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserRegistry_EnsureSeeded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := store.NewMemoryKV()
	bus := events.NewBus()
	r := NewUserRegistry(ctx, kv, bus)

	// Simulate a restore that wiped the user list.
	bus.Publish(store.ExternalTopic(store.KeyUsers), []byte(`[]`))
	require.Empty(t, r.List())

	require.NoError(t, r.EnsureSeeded(ctx))
	require.Len(t, r.List(), 1)
	assert.Equal(t, DefaultAdminID, r.List()[0].ID)
}
