package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/storage"
)

func newManager(t *testing.T) *user.Manager {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	m := user.NewManager(db, "test-secret")
	m.HashCost = bcrypt.MinCost
	return m
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	has, err := m.HasAnyUsers(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "p", Admin: true}))
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "bob", Password: "q"}))

	users, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, int64(1), users[0].Admin)
	assert.Equal(t, int64(0), users[1].Admin)

	has, err = m.HasAnyUsers(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	assert.ErrorIs(t, m.Create(ctx, user.NewUser{Name: "", Password: "p"}), user.ErrEmptyUsername)
	assert.ErrorIs(t, m.Create(ctx, user.NewUser{Name: "alice", Password: ""}), user.ErrEmptyPassword)

	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "p"}))
	assert.ErrorIs(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "p"}), user.ErrDuplicateUsername)
}

func TestIsAdminTreatsAnyNonZeroAsAdmin(t *testing.T) {
	assert.False(t, user.User{Admin: 0}.IsAdmin())
	assert.True(t, user.User{Admin: 1}.IsAdmin())
	assert.True(t, user.User{Admin: 42}.IsAdmin())
	assert.True(t, user.User{Admin: -1}.IsAdmin())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "old"}))

	password, admin := "new", true
	require.NoError(t, m.Update(ctx, "alice", user.Patch{Password: &password, Admin: &admin}))
	_, err := m.Login(ctx, "alice", "old")
	assert.ErrorIs(t, err, user.ErrIncorrectCredentials)
	auth, err := m.Login(ctx, "alice", "new")
	require.NoError(t, err)
	assert.True(t, auth.IsAdmin)

	require.NoError(t, m.Update(ctx, "alice", user.Patch{}))
	assert.ErrorIs(t, m.Update(ctx, "nobody", user.Patch{Admin: &admin}), user.ErrUserNotFound)
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "old"}))

	empty, admin := "", true
	err := m.Update(ctx, "alice", user.Patch{Password: &empty, Admin: &admin})
	assert.ErrorIs(t, err, user.ErrEmptyPassword)

	u, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin(), "admin flag must not change when the password is rejected")
	_, err = m.Login(ctx, "alice", "old")
	require.NoError(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "p"}))

	require.NoError(t, m.Delete(ctx, "alice"))
	_, err := m.Get(ctx, "alice")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "alice"), user.ErrUserNotFound)
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "a", Admin: true}))
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "bob", Password: "b"}))
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "carol", Password: "c"}))

	err := m.ReplaceAll(ctx, []user.NewUser{
		{Name: "alice", Password: "", Admin: false},
		{Name: "dave", Password: "d", Admin: true},
	})
	require.NoError(t, err)

	users, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.False(t, users[0].IsAdmin())
	assert.Equal(t, "dave", users[1].Name)
	assert.True(t, users[1].IsAdmin())

	// alice kept her password because none was given.
	_, err = m.Login(ctx, "alice", "a")
	require.NoError(t, err)
}

func TestReplaceAllRequiresPasswordForNewUsers(t *testing.T) {
	m := newManager(t)
	err := m.ReplaceAll(context.Background(), []user.NewUser{{Name: "eve"}})
	assert.ErrorIs(t, err, user.ErrEmptyPassword)
}

func TestLastFMSessionKey(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	require.NoError(t, m.Create(ctx, user.NewUser{Name: "alice", Password: "p"}))

	require.NoError(t, m.LinkLastFM(ctx, "alice", "session"))
	u, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "session", u.LastFMSessionKey)

	require.NoError(t, m.UnlinkLastFM(ctx, "alice"))
	u, err = m.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, u.LastFMSessionKey)
}
