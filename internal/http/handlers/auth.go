package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Guest issues a token for a fresh guest identity
func (h *Handler) Guest(c *gin.Context) {
	userID, err := h.NewUserID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	token, err := h.Tokens.Generate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": userID,
	})
}
