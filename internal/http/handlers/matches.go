package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rps_webapp/internal/domain"
)

const historyLimit = 50

// MyMatches lists the caller's latest rounds
func (h *Handler) MyMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
		return
	}

	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	matches, err := h.Matches.GetByUser(c.Request.Context(), userID, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
		return
	}

	views := make([]domain.MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, m.ViewFor(userID))
	}
	c.JSON(http.StatusOK, gin.H{"matches": views})
}

func (h *Handler) Stats(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
		return
	}

	stats, err := h.Matches.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
