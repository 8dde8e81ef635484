package dto

import "github.com/Saecki/polaris/internal/app/user"

type InitialSetup struct {
	HasAnyUsers bool `json:"has_any_users"`
}

type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Authorization struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	IsAdmin  bool   `json:"is_admin"`
}

func NewAuthorization(a user.Authorization) Authorization {
	return Authorization{
		Username: a.Username,
		Token:    string(a.Token),
		IsAdmin:  a.IsAdmin,
	}
}

// AuthQueryParameters carries a token in the query string, for clients that
// cannot set headers (media elements, redirects).
type AuthQueryParameters struct {
	AuthToken string `json:"auth_token" form:"auth_token"`
}
