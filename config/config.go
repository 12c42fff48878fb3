package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Cors struct {
		Origins string
	}
	Spotify struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	Deezer struct {
		BaseURL string
	}
	Cache struct {
		Path string
	}
	Transfer struct {
		Retention time.Duration
		RateLimit float64
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("CROSSFADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("cors.origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("spotify.clientid", "")
	v.SetDefault("spotify.clientsecret", "")
	v.SetDefault("spotify.redirecturl", "http://localhost:8080/spotify/callback")
	v.SetDefault("deezer.baseurl", "https://api.deezer.com")
	v.SetDefault("cache.path", "data/crossfade.db")
	v.SetDefault("transfer.retention", 5*time.Minute)
	v.SetDefault("transfer.ratelimit", 10.0)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from a local .env file
// without overriding variables that are already set.
func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:eq])
		value := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}
