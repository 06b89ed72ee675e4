package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"presence-hub/internal/hub"
	"presence-hub/internal/repositories"
	"presence-hub/internal/telemetry"
)

// RoomHandler exposes the REST surface next to the websocket endpoint:
// message history, bulk mark-read, and presence snapshots.
type RoomHandler struct {
	messageRepo repositories.MessageRepository
	hub         *hub.Hub
	audit       *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(messageRepo repositories.MessageRepository, h *hub.Hub, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{messageRepo: messageRepo, hub: h, audit: audit}
}

// GetRoomMessages returns a room's stored messages in creation order.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("room_id")

	msgs, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkRoomRead bulk-marks all of a room's messages as read.
func (h *RoomHandler) MarkRoomRead(c *gin.Context) {
	roomID := c.Param("room_id")

	count, err := h.hub.MarkRead(c.Request.Context(), roomID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrStorageUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to mark room read"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", roomID, "room marked read", requestIDFromContext(c), identityFromContext(c))
	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// GetRoomPresence returns the live participant snapshot of a room.
func (h *RoomHandler) GetRoomPresence(c *gin.Context) {
	roomID := c.Param("room_id")

	participants, err := h.hub.PresenceSnapshot(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hub unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// Healthz reports liveness and the current connection count.
func (h *RoomHandler) Healthz(c *gin.Context) {
	count, err := h.hub.ConnectionCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopping"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": count})
}
