package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/dto"
)

func (s *server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.User, len(users))
	for i, u := range users {
		out[i] = dto.NewUserFromInternal(u)
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) createUser(c *gin.Context) {
	var nu dto.NewUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		bindError(c, err)
		return
	}
	if err := s.users.Create(c.Request.Context(), nu.Internal()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// updateUser applies the fields present in the patch. An empty patch only
// checks that the user exists.
func (s *server) updateUser(c *gin.Context) {
	name := c.Param("name")

	var update dto.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		bindError(c, err)
		return
	}
	if update.NewIsAdmin != nil && !*update.NewIsAdmin && name == currentUser(c) {
		respondError(c, ErrRemovingOwnAdminRights)
		return
	}
	if err := s.users.Update(c.Request.Context(), name, update.Internal()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *server) deleteUser(c *gin.Context) {
	name := c.Param("name")
	if name == currentUser(c) {
		respondError(c, ErrDeletingOwnAccount)
		return
	}
	if err := s.users.Delete(c.Request.Context(), name); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
