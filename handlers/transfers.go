package handlers

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"crossfade/deezer"
	"crossfade/services"
	"crossfade/types"
	"crossfade/websocket"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Error codes surfaced to the browser client for failures detected before
// a task is created.
const (
	errCodeBadRequest          = "BAD_REQUEST"
	errCodeInvalidPlaylistURL  = "DEEZER_PLAYLIST_URL_INVALID"
	errCodeNameMissing         = "DEEZER_PLAYLIST_NAME_MISSING"
	errCodeSpotifyTokenMissing = "SPOTIFY_ACCESS_TOKEN_MISSING"
)

// playlistURLPattern extracts the numeric playlist id out of a Deezer
// playlist URL, or accepts a bare id.
var playlistURLPattern = regexp.MustCompile(`(?m)(?:playlist/|)(\d+)(?:[/?]|$)`)

// SpotifyAuth is the slice of the Spotify client the transfer handler
// needs for pre-flight validation.
type SpotifyAuth interface {
	Authenticated() bool
}

// TransferHandler handles starting transfers and observing their progress.
type TransferHandler struct {
	transfers *services.TransferService
	registry  *services.TaskRegistry
	deezer    *deezer.Client
	auth      SpotifyAuth
	logger    *log.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(transfers *services.TransferService, registry *services.TaskRegistry, deezerClient *deezer.Client, auth SpotifyAuth, logger *log.Logger) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		registry:  registry,
		deezer:    deezerClient,
		auth:      auth,
		logger:    logger,
	}
}

// StartPlaylistExport validates the request, then starts a background
// transfer of a Deezer playlist (fetched from the public API) and returns
// the task id immediately.
func (h *TransferHandler) StartPlaylistExport(c *gin.Context) {
	var req types.StartPlaylistExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": errCodeBadRequest})
		return
	}

	if req.PlaylistURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": errCodeBadRequest})
		return
	}

	playlistID := extractPlaylistID(req.PlaylistURL)
	if playlistID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": errCodeInvalidPlaylistURL})
		return
	}

	if req.Name == "" && !req.IsLikes {
		c.JSON(http.StatusBadRequest, gin.H{"errorCode": errCodeNameMissing})
		return
	}

	if !h.auth.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"errorCode": errCodeSpotifyTokenMissing})
		return
	}

	public := true
	if req.Public != nil {
		public = *req.Public
	}

	taskID := h.transfers.Start(services.TransferRequest{
		Source: services.SourceFunc(func(ctx context.Context) ([]types.SourceTrack, error) {
			return h.deezer.PlaylistTracks(ctx, playlistID)
		}),
		Name:        req.Name,
		Description: req.Description,
		Public:      public,
		IsLikes:     req.IsLikes,
	})

	h.logger.Info("playlist export started", "taskId", taskID, "playlistId", playlistID)
	c.JSON(http.StatusAccepted, types.StartExportResponse{TaskID: taskID})
}

// StartFileExport validates the multipart request, parses the uploaded
// CSV export in-request and starts the background transfer.
func (h *TransferHandler) StartFileExport(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file provided"})
		return
	}

	name := c.PostForm("name")
	isLikes := strings.EqualFold(c.PostForm("isLikes"), "true")
	isPublic := strings.EqualFold(c.PostForm("isPublic"), "true")
	description := c.PostForm("description")

	if name == "" && !isLikes {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No playlist name provided"})
		return
	}

	if !h.auth.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Spotify access token is missing"})
		return
	}

	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read file"})
		return
	}
	defer opened.Close()

	content, err := io.ReadAll(opened)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read file"})
		return
	}

	// An unparseable file still produces a task; the empty track list is
	// reported through the task's error status.
	var tracks []types.SourceTrack
	if playlist := deezer.ParseCSV(string(content), h.logger); playlist != nil {
		tracks = playlist.Tracks
	}

	taskID := h.transfers.Start(services.TransferRequest{
		Source:      services.StaticSource(tracks),
		Name:        name,
		Description: description,
		Public:      isPublic,
		IsLikes:     isLikes,
	})

	h.logger.Info("file export started", "taskId", taskID, "tracks", len(tracks))
	c.JSON(http.StatusAccepted, types.StartExportResponse{TaskID: taskID})
}

// GetTask returns the current snapshot of a transfer task.
func (h *TransferHandler) GetTask(c *gin.Context) {
	taskID := c.Param("taskId")

	snapshot, ok := h.registry.GetTask(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// HandleExportProgress upgrades to a websocket streaming task snapshots
// until the task reaches a terminal status.
func (h *TransferHandler) HandleExportProgress(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task ID is required"})
		return
	}

	conn, err := websocket.Upgrade(c.Writer, c.Request)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "taskId", taskID, "err", err)
		return
	}

	client := websocket.NewClient(h.registry, conn, taskID, h.logger)
	client.StartPumps()
}

func extractPlaylistID(playlistURL string) string {
	match := playlistURLPattern.FindStringSubmatch(playlistURL)
	if match == nil {
		return ""
	}
	return match[1]
}
