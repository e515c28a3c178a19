package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRooms returns the rooms currently held by the gateway
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.Rooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rooms unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
