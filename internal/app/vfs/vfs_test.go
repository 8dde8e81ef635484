package vfs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saecki/polaris/internal/app/vfs"
	"github.com/Saecki/polaris/internal/storage"
)

func TestSetMountDirsReplaces(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	m := vfs.NewManager(db)

	require.NoError(t, m.SetMountDirs(ctx, []vfs.MountDir{
		{Source: "/a", Name: "A"},
		{Source: "/b", Name: "B"},
		{Source: "/c", Name: "C"},
	}))
	require.NoError(t, m.SetMountDirs(ctx, []vfs.MountDir{{Source: "/z", Name: "Z"}}))

	dirs, err := m.MountDirs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []vfs.MountDir{{Source: "/z", Name: "Z"}}, dirs)
}

func TestMountDirsKeepOrder(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	m := vfs.NewManager(db)

	want := []vfs.MountDir{{Source: "/z", Name: "Zeta"}, {Source: "/a", Name: "Alpha"}}
	require.NoError(t, m.SetMountDirs(ctx, want))
	got, err := m.MountDirs(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVirtualToReal(t *testing.T) {
	dirs := []vfs.MountDir{{Source: filepath.FromSlash("/srv/music"), Name: "Music"}}

	tests := []struct {
		name    string
		virtual string
		want    string
		wantErr error
	}{
		{"mount root", "Music", filepath.FromSlash("/srv/music"), nil},
		{"nested file", "Music/Artist/01.mp3", filepath.FromSlash("/srv/music/Artist/01.mp3"), nil},
		{"leading slash", "/Music/Artist", filepath.FromSlash("/srv/music/Artist"), nil},
		{"escape attempt is cleaned", "Music/../../etc", "", vfs.ErrMountDirNotFound},
		{"unknown mount", "Videos/x", "", vfs.ErrMountDirNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vfs.VirtualToReal(dirs, tt.virtual)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRealToVirtual(t *testing.T) {
	dirs := []vfs.MountDir{{Source: filepath.FromSlash("/srv/music"), Name: "Music"}}

	got, err := vfs.RealToVirtual(dirs, filepath.FromSlash("/srv/music/Artist/01.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "Music/Artist/01.mp3", got)

	got, err = vfs.RealToVirtual(dirs, filepath.FromSlash("/srv/music"))
	require.NoError(t, err)
	assert.Equal(t, "Music", got)

	_, err = vfs.RealToVirtual(dirs, filepath.FromSlash("/srv/musical/x.mp3"))
	assert.ErrorIs(t, err, vfs.ErrMountDirNotFound)
}
