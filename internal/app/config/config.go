// Package config applies whole-server configuration changes subsystem by subsystem.
package config

import (
	"context"
	"fmt"
	"log"

	"github.com/Saecki/polaris/internal/app/ddns"
	"github.com/Saecki/polaris/internal/app/settings"
	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/app/vfs"
)

// Config is a configuration change. A nil section means "leave that subsystem
// alone". A non-nil Users or MountDirs replaces the whole collection, so a
// pointer to an empty slice clears it.
type Config struct {
	Settings  *settings.NewSettings
	Users     *[]user.NewUser
	MountDirs *[]vfs.MountDir
	Ydns      *ddns.Config
}

type SettingsStore interface {
	Amend(ctx context.Context, patch settings.NewSettings) error
}

type UserStore interface {
	ReplaceAll(ctx context.Context, users []user.NewUser) error
}

type MountStore interface {
	SetMountDirs(ctx context.Context, dirs []vfs.MountDir) error
}

type DDNSStore interface {
	SetConfig(ctx context.Context, c ddns.Config) error
}

type Manager struct {
	settings SettingsStore
	users    UserStore
	mounts   MountStore
	ddns     DDNSStore
}

func NewManager(s SettingsStore, u UserStore, m MountStore, d DDNSStore) *Manager {
	return &Manager{settings: s, users: u, mounts: m, ddns: d}
}

// Apply writes every present section. Sections are applied in a fixed order
// and the first failure stops the rest.
func (m *Manager) Apply(ctx context.Context, c Config) error {
	if c.Settings != nil {
		if err := m.settings.Amend(ctx, *c.Settings); err != nil {
			return fmt.Errorf("apply settings: %w", err)
		}
		log.Println("[CONFIG] Applied settings")
	}
	if c.MountDirs != nil {
		if err := m.mounts.SetMountDirs(ctx, *c.MountDirs); err != nil {
			return fmt.Errorf("apply mount dirs: %w", err)
		}
		log.Printf("[CONFIG] Replaced mount dirs (%d)", len(*c.MountDirs))
	}
	if c.Users != nil {
		if err := m.users.ReplaceAll(ctx, *c.Users); err != nil {
			return fmt.Errorf("apply users: %w", err)
		}
		log.Printf("[CONFIG] Replaced users (%d)", len(*c.Users))
	}
	if c.Ydns != nil {
		if err := m.ddns.SetConfig(ctx, *c.Ydns); err != nil {
			return fmt.Errorf("apply ydns: %w", err)
		}
		log.Println("[CONFIG] Applied ydns config")
	}
	return nil
}
