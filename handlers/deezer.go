package handlers

import (
	"io"
	"net/http"

	"crossfade/deezer"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// DeezerHandler exposes read-only access to the source catalog: playlist
// fetches and CSV parsing, without starting a transfer.
type DeezerHandler struct {
	client *deezer.Client
	logger *log.Logger
}

// NewDeezerHandler creates a new Deezer handler.
func NewDeezerHandler(client *deezer.Client, logger *log.Logger) *DeezerHandler {
	return &DeezerHandler{client: client, logger: logger}
}

// GetPlaylist fetches a public playlist's track list.
func (h *DeezerHandler) GetPlaylist(c *gin.Context) {
	playlistID := c.Param("playlistId")

	tracks, err := h.client.PlaylistTracks(c.Request.Context(), playlistID)
	if err != nil {
		h.logger.Warn("failed to fetch playlist", "playlistId", playlistID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Could not fetch playlist"})
		return
	}

	if len(tracks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No data found"})
		return
	}

	h.logger.Info("fetched deezer playlist", "playlistId", playlistID, "tracks", len(tracks))
	c.JSON(http.StatusOK, gin.H{"data": tracks, "total": len(tracks)})
}

// ParseFile parses an uploaded CSV export and echoes the playlist back.
func (h *DeezerHandler) ParseFile(c *gin.Context) {
	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read file"})
		return
	}

	playlist := deezer.ParseCSV(string(content), h.logger)
	if playlist == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No data found"})
		return
	}

	h.logger.Info("parsed deezer playlist", "name", playlist.PlaylistName, "tracks", len(playlist.Tracks))
	c.JSON(http.StatusOK, playlist)
}
