package cmd

import (
	"os"

	"crossfade/config"
	"crossfade/deezer"
	"crossfade/handlers"
	"crossfade/middleware"
	"crossfade/repository"
	"crossfade/services"
	"crossfade/spotify"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartWebServer wires the application together and serves until the
// listener fails.
func StartWebServer(cfg config.Config, logger *log.Logger) {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	metrics := services.NewMetrics(promRegistry)

	spotifyClient := spotify.NewClient(
		cfg.Spotify.ClientID,
		cfg.Spotify.ClientSecret,
		cfg.Spotify.RedirectURL,
		"",
	)
	deezerClient := deezer.NewClient(cfg.Deezer.BaseURL)

	var cache services.MatchCache
	if cfg.Cache.Path != "" {
		trackCache, err := repository.OpenTrackCache(cfg.Cache.Path, logger)
		if err != nil {
			logger.Warn("match cache disabled", "err", err)
		} else {
			defer trackCache.Close()
			cache = trackCache
		}
	}

	registry := services.NewTaskRegistry(cfg.Transfer.Retention, logger)
	matcher := services.NewTrackMatcher(spotifyClient, cache, cfg.Transfer.RateLimit, logger)
	transfers := services.NewTransferService(registry, matcher, spotifyClient, spotifyClient, metrics, logger)

	transferHandler := handlers.NewTransferHandler(transfers, registry, deezerClient, spotifyClient, logger)
	deezerHandler := handlers.NewDeezerHandler(deezerClient, logger)
	spotifyHandler := handlers.NewSpotifyHandler(spotifyClient, spotifyClient, logger)
	healthHandler := handlers.NewHealthHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Cors.Origins))
	r.Use(middleware.Logging(logger))

	setupRoutes(r, transferHandler, deezerHandler, spotifyHandler, healthHandler, promRegistry)

	logger.Info("crossfade server starting", "addr", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("failed to start server", "err", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, transferHandler *handlers.TransferHandler, deezerHandler *handlers.DeezerHandler, spotifyHandler *handlers.SpotifyHandler, healthHandler *handlers.HealthHandler, promRegistry *prometheus.Registry) {
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	// OAuth endpoints live outside /api so the registered redirect URL
	// stays short.
	r.GET("/spotify/login", spotifyHandler.Login)
	r.GET("/spotify/callback", spotifyHandler.Callback)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		deezerGroup := apiGroup.Group("/deezer")
		{
			deezerGroup.GET("/playlists/:playlistId", deezerHandler.GetPlaylist)
			deezerGroup.POST("/file", deezerHandler.ParseFile)

			deezerGroup.POST("/start-playlist-export", transferHandler.StartPlaylistExport)
			deezerGroup.POST("/start-file-export", transferHandler.StartFileExport)

			deezerGroup.GET("/tasks/:taskId", transferHandler.GetTask)
			deezerGroup.GET("/export-progress/:taskId", transferHandler.HandleExportProgress)
		}

		spotifyGroup := apiGroup.Group("/spotify")
		{
			spotifyGroup.POST("/search/track", spotifyHandler.SearchTrack)
		}
	}
}
