package dto

// LastFMLink completes a link. AuthToken must be a link-scoped token issued
// by this server, Token comes from Last.fm and Content is relayed back to
// the browser once the link succeeds.
type LastFMLink struct {
	AuthToken string `json:"auth_token" form:"auth_token" binding:"required"`
	Token     string `json:"token" form:"token" binding:"required"`
	Content   string `json:"content" form:"content"`
}

type LastFMLinkToken struct {
	Value string `json:"value"`
}
