package main

import (
	"flag"
	"os"

	"crossfade/cmd"
	"crossfade/config"

	"github.com/charmbracelet/log"
)

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		logger.Fatal("CROSSFADE_SPOTIFY_CLIENTID and CROSSFADE_SPOTIFY_CLIENTSECRET must be set")
	}

	cmd.StartWebServer(cfg, logger)
}
