package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/app/config"
	"github.com/Saecki/polaris/internal/app/ddns"
	"github.com/Saecki/polaris/internal/app/index"
	"github.com/Saecki/polaris/internal/app/lastfm"
	"github.com/Saecki/polaris/internal/app/playlist"
	"github.com/Saecki/polaris/internal/app/settings"
	"github.com/Saecki/polaris/internal/app/thumbnail"
	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/app/vfs"
	"github.com/Saecki/polaris/internal/storage"
)

// server holds the services behind the HTTP API.
type server struct {
	users      *user.Manager
	settings   *settings.Manager
	vfs        *vfs.Manager
	ddns       *ddns.Manager
	config     *config.Manager
	index      *index.Manager
	thumbnails *thumbnail.Manager
	playlists  *playlist.Manager
	lastfm     *lastfm.Manager
	scheduler  *jobScheduler
}

func newServer(db *sql.DB, env envConfig) *server {
	s := &server{
		users:      user.NewManager(db, env.JWTSecret),
		settings:   settings.NewManager(db),
		vfs:        vfs.NewManager(db),
		ddns:       ddns.NewManager(db),
		thumbnails: thumbnail.NewManager(env.CacheDir),
	}
	s.config = config.NewManager(s.settings, s.users, s.vfs, s.ddns)
	s.index = index.NewManager(db, s.vfs, s.settings)
	s.playlists = playlist.NewManager(db, s.index)
	s.lastfm = lastfm.NewManager(s.users, env.LastFMKey, env.LastFMSecret)
	s.scheduler = newJobScheduler(s.settings, s.index, s.ddns)
	return s
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		log.Printf(
			"[GIN] | %d | %13v | %15s | %-7s | %s",
			c.Writer.Status(),
			latency,
			c.ClientIP(),
			c.Request.Method,
			c.Request.URL.Path,
		)
	}
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggingMiddleware())

	api := r.Group("/api")
	{
		api.GET("/version", s.getVersion)
		api.GET("/initial_setup", s.getInitialSetup)
		api.POST("/auth", s.login)
		api.GET("/lastfm/link", s.linkLastFM)

		admin := api.Group("")
		admin.Use(s.adminOrSetup())
		{
			admin.GET("/settings", s.getSettings)
			admin.PUT("/settings", s.putSettings)
			admin.GET("/mount_dirs", s.getMountDirs)
			admin.PUT("/mount_dirs", s.putMountDirs)
			admin.GET("/ddns", s.getDDNS)
			admin.PUT("/ddns", s.putDDNS)
			admin.PUT("/config", s.putConfig)
			admin.GET("/users", s.listUsers)
			admin.POST("/user", s.createUser)
			admin.PUT("/user/:name", s.updateUser)
			admin.DELETE("/user/:name", s.deleteUser)
			admin.POST("/trigger_index", s.triggerIndex)
		}

		authed := api.Group("")
		authed.Use(s.authMiddleware())
		{
			authed.GET("/browse/*path", s.browse)
			authed.GET("/flatten/*path", s.flatten)
			authed.GET("/random", s.random)
			authed.GET("/recent", s.recent)
			authed.GET("/search/*query", s.search)
			authed.GET("/thumbnail/*path", s.getThumbnail)

			authed.GET("/playlists", s.listPlaylists)
			authed.PUT("/playlist/:name", s.savePlaylist)
			authed.GET("/playlist/:name", s.readPlaylist)
			authed.DELETE("/playlist/:name", s.deletePlaylist)

			authed.GET("/lastfm/link_token", s.getLastFMLinkToken)
			authed.DELETE("/lastfm/link", s.unlinkLastFM)
		}
	}
	return r
}

func main() {
	env, err := loadEnv()
	if err != nil {
		log.Fatal(err)
	}

	db, err := storage.Open(env.DBPath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	s := newServer(db, env)
	ctx := context.Background()

	if env.ConfigPath != "" {
		c, err := readConfigFile(env.ConfigPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := s.config.Apply(ctx, c.Internal()); err != nil {
			log.Fatalf("Failed to apply config file: %v", err)
		}
	}

	if err := s.scheduler.Restart(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer s.scheduler.Stop()
	s.index.Trigger()

	log.Printf("Listening and serving HTTP on :%s", env.Port)
	if err := s.router().Run(":" + env.Port); err != nil {
		log.Fatal(err)
	}
}
