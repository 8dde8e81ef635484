package dto

import (
	"github.com/Saecki/polaris/internal/app/config"
	"github.com/Saecki/polaris/internal/app/user"
)

// Config is a whole-server configuration change. Each section is optional;
// a present list replaces the stored one.
type Config struct {
	Settings  *NewSettings `json:"settings,omitempty" toml:"settings,omitempty"`
	Users     *[]NewUser   `json:"users,omitempty" toml:"users,omitempty"`
	MountDirs *[]MountDir  `json:"mount_dirs,omitempty" toml:"mount_dirs,omitempty"`
	Ydns      *DDNSConfig  `json:"ydns,omitempty" toml:"ydns,omitempty"`
}

func (c Config) Internal() config.Config {
	var out config.Config
	if c.Settings != nil {
		s := c.Settings.Internal()
		out.Settings = &s
	}
	if c.Users != nil {
		users := make([]user.NewUser, len(*c.Users))
		for i, u := range *c.Users {
			users[i] = u.Internal()
		}
		out.Users = &users
	}
	if c.MountDirs != nil {
		dirs := InternalMountDirs(*c.MountDirs)
		out.MountDirs = &dirs
	}
	if c.Ydns != nil {
		y := c.Ydns.Internal()
		out.Ydns = &y
	}
	return out
}
