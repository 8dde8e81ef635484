package dto

import "github.com/Saecki/polaris/internal/app/user"

// User is the public view of an account. It never carries credentials.
type User struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

func NewUserFromInternal(u user.User) User {
	return User{Name: u.Name, IsAdmin: u.Admin != 0}
}

type NewUser struct {
	Name     string `json:"name" toml:"name"`
	Password string `json:"password" toml:"password"`
	Admin    bool   `json:"admin" toml:"admin"`
}

func (u NewUser) Internal() user.NewUser {
	return user.NewUser{Name: u.Name, Password: u.Password, Admin: u.Admin}
}

// UserUpdate is a sparse patch of an existing account.
type UserUpdate struct {
	NewPassword *string `json:"new_password,omitempty"`
	NewIsAdmin  *bool   `json:"new_is_admin,omitempty"`
}

func (u UserUpdate) IsEmpty() bool {
	return u.NewPassword == nil && u.NewIsAdmin == nil
}

func (u UserUpdate) Internal() user.Patch {
	return user.Patch{Password: u.NewPassword, Admin: u.NewIsAdmin}
}
