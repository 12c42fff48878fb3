package handlers

import (
	"context"
	"net/http"
	"sync"

	"crossfade/services"
	"crossfade/types"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SpotifyOAuth is the slice of the Spotify client the auth handlers need.
type SpotifyOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
}

// SpotifyHandler handles the OAuth dance and the direct search
// passthrough kept around for testing.
type SpotifyHandler struct {
	oauth    SpotifyOAuth
	searcher services.TrackSearcher
	logger   *log.Logger

	mu    sync.Mutex
	state string
}

// NewSpotifyHandler creates a new Spotify handler.
func NewSpotifyHandler(oauth SpotifyOAuth, searcher services.TrackSearcher, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{oauth: oauth, searcher: searcher, logger: logger}
}

// Login redirects the user to Spotify's authorization page.
func (h *SpotifyHandler) Login(c *gin.Context) {
	state := uuid.NewString()

	h.mu.Lock()
	h.state = state
	h.mu.Unlock()

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthURL(state))
}

// Callback exchanges the authorization code for a token.
func (h *SpotifyHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No code or state provided"})
		return
	}

	h.mu.Lock()
	expected := h.state
	h.mu.Unlock()

	if state != expected {
		c.JSON(http.StatusBadRequest, gin.H{"message": "State mismatch"})
		return
	}

	if err := h.oauth.Exchange(c.Request.Context(), code); err != nil {
		h.logger.Error("token exchange failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Token exchange failed"})
		return
	}

	h.logger.Info("spotify token obtained")
	c.JSON(http.StatusOK, gin.H{"message": "Authenticated with Spotify"})
}

// SearchTrack runs one structured track search and returns the raw
// matches. For testing purposes.
func (h *SpotifyHandler) SearchTrack(c *gin.Context) {
	var req types.SearchTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	query := services.BuildQuery(req.SongName, req.ArtistName, req.AlbumName)
	results, err := h.searcher.SearchTrack(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}
