package config_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saecki/polaris/internal/app/config"
	"github.com/Saecki/polaris/internal/app/ddns"
	"github.com/Saecki/polaris/internal/app/settings"
	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/app/vfs"
	"github.com/Saecki/polaris/internal/dto"
	"github.com/Saecki/polaris/internal/storage"
)

type services struct {
	settings *settings.Manager
	users    *user.Manager
	vfs      *vfs.Manager
	ddns     *ddns.Manager
	config   *config.Manager
}

func setup(t *testing.T) services {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := services{
		settings: settings.NewManager(db),
		users:    user.NewManager(db, "secret"),
		vfs:      vfs.NewManager(db),
		ddns:     ddns.NewManager(db),
	}
	s.users.HashCost = 4
	s.config = config.NewManager(s.settings, s.users, s.vfs, s.ddns)
	return s
}

func TestApplyEmptyConfigChangesNothing(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	require.NoError(t, s.vfs.SetMountDirs(ctx, []vfs.MountDir{{Source: "/music", Name: "root"}}))
	require.NoError(t, s.users.Create(ctx, user.NewUser{Name: "alice", Password: "pw"}))
	before, err := s.settings.Read(ctx)
	require.NoError(t, err)

	require.NoError(t, s.config.Apply(ctx, config.Config{}))

	dirs, err := s.vfs.MountDirs(ctx)
	require.NoError(t, err)
	assert.Len(t, dirs, 1)
	users, err := s.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	after, err := s.settings.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApplyReplacesMountDirs(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	require.NoError(t, s.vfs.SetMountDirs(ctx, []vfs.MountDir{
		{Source: "/a", Name: "a"}, {Source: "/b", Name: "b"}, {Source: "/c", Name: "c"},
	}))

	only := []vfs.MountDir{{Source: "/d", Name: "d"}}
	require.NoError(t, s.config.Apply(ctx, config.Config{MountDirs: &only}))

	dirs, err := s.vfs.MountDirs(ctx)
	require.NoError(t, err)
	assert.Equal(t, only, dirs)

	none := []vfs.MountDir{}
	require.NoError(t, s.config.Apply(ctx, config.Config{MountDirs: &none}))
	dirs, err = s.vfs.MountDirs(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestApplyFromJSON(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	require.NoError(t, s.users.Create(ctx, user.NewUser{Name: "old", Password: "pw"}))

	body := `{
		"settings": {"reindex_every_n_seconds": 60},
		"users": [{"name": "admin", "password": "pw", "admin": true}],
		"mount_dirs": [{"source": "/srv/music", "name": "root"}],
		"ydns": {"host": "home.ydns.eu", "username": "u", "password": "p"}
	}`
	var c dto.Config
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	require.NoError(t, s.config.Apply(ctx, c.Internal()))

	st, err := s.settings.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(60), st.IndexSleepDurationSeconds)
	assert.Equal(t, settings.DefaultAlbumArtPattern, st.IndexAlbumArtPattern)

	users, err := s.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Name)
	assert.Equal(t, int64(1), users[0].Admin)

	dirs, err := s.vfs.MountDirs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []vfs.MountDir{{Source: "/srv/music", Name: "root"}}, dirs)

	y, err := s.ddns.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, ddns.Config{Host: "home.ydns.eu", Username: "u", Password: "p"}, y)
}

type failingSettings struct{}

func (failingSettings) Amend(context.Context, settings.NewSettings) error {
	return errors.New("boom")
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	m := config.NewManager(failingSettings{}, s.users, s.vfs, s.ddns)

	dirs := []vfs.MountDir{{Source: "/x", Name: "x"}}
	pattern := "x"
	err := m.Apply(ctx, config.Config{Settings: &settings.NewSettings{AlbumArtPattern: &pattern}, MountDirs: &dirs})
	assert.Error(t, err)

	got, err := s.vfs.MountDirs(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
