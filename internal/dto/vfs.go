package dto

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/Saecki/polaris/internal/app/vfs"
)

var ErrNullMountDirs = errors.New("mount dirs must be a list, not null")

type MountDir struct {
	Source string `json:"source" toml:"source"`
	Name   string `json:"name" toml:"name"`
}

func NewMountDir(m vfs.MountDir) MountDir {
	return MountDir{Source: m.Source, Name: m.Name}
}

func (m MountDir) Internal() vfs.MountDir {
	return vfs.MountDir{Source: m.Source, Name: m.Name}
}

func NewMountDirs(dirs []vfs.MountDir) []MountDir {
	out := make([]MountDir, len(dirs))
	for i, d := range dirs {
		out[i] = NewMountDir(d)
	}
	return out
}

func InternalMountDirs(dirs []MountDir) []vfs.MountDir {
	out := make([]vfs.MountDir, len(dirs))
	for i, d := range dirs {
		out[i] = d.Internal()
	}
	return out
}

// MountDirList is the body of a mount dir replacement. Unlike a plain slice
// it rejects null, so a missing list never clears every mount.
type MountDirList []MountDir

func (l *MountDirList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNullMountDirs
	}
	var dirs []MountDir
	if err := json.Unmarshal(data, &dirs); err != nil {
		return err
	}
	*l = dirs
	return nil
}
