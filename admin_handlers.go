package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/dto"
)

func (s *server) getSettings(c *gin.Context) {
	st, err := s.settings.Read(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSettingsFromInternal(st))
}

func (s *server) putSettings(c *gin.Context) {
	var patch dto.NewSettings
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}
	if err := s.settings.Amend(c.Request.Context(), patch.Internal()); err != nil {
		respondError(c, err)
		return
	}
	if patch.ReindexEveryNSeconds != nil {
		s.rescheduleJobs(c)
	}
	c.Status(http.StatusOK)
}

func (s *server) getMountDirs(c *gin.Context) {
	dirs, err := s.vfs.MountDirs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMountDirs(dirs))
}

func (s *server) putMountDirs(c *gin.Context) {
	var dirs dto.MountDirList
	if err := c.ShouldBindJSON(&dirs); err != nil {
		bindError(c, err)
		return
	}
	if err := s.vfs.SetMountDirs(c.Request.Context(), dto.InternalMountDirs(dirs)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *server) getDDNS(c *gin.Context) {
	cfg, err := s.ddns.Config(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDDNSConfig(cfg))
}

func (s *server) putDDNS(c *gin.Context) {
	var cfg dto.DDNSConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		bindError(c, err)
		return
	}
	if err := s.ddns.SetConfig(c.Request.Context(), cfg.Internal()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *server) putConfig(c *gin.Context) {
	var cfg dto.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		bindError(c, err)
		return
	}
	if err := s.config.Apply(c.Request.Context(), cfg.Internal()); err != nil {
		respondError(c, err)
		return
	}
	if cfg.Settings != nil && cfg.Settings.ReindexEveryNSeconds != nil {
		s.rescheduleJobs(c)
	}
	c.Status(http.StatusOK)
}

// rescheduleJobs picks up a new reindex period. A failure is logged and the
// previous schedule keeps running.
func (s *server) rescheduleJobs(c *gin.Context) {
	if err := s.scheduler.Restart(c.Request.Context()); err != nil {
		log.Printf("Failed to reschedule jobs: %v", err)
	}
}
