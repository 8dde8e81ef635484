package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/dto"
)

func (s *server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CurrentVersion())
}

func (s *server) getInitialSetup(c *gin.Context) {
	hasUsers, err := s.users.HasAnyUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.InitialSetup{HasAnyUsers: hasUsers})
}

func (s *server) login(c *gin.Context) {
	var creds dto.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		bindError(c, err)
		return
	}
	auth, err := s.users.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthorization(auth))
}

func (s *server) triggerIndex(c *gin.Context) {
	s.index.Trigger()
	c.Status(http.StatusOK)
}
