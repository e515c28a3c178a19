package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"rps_webapp/internal/domain"
	"rps_webapp/internal/ws"
)

// MatchStore reads recorded rounds
type MatchStore interface {
	GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.Match, error)
	Stats(ctx context.Context) (domain.MatchStats, error)
}

type RoomLister interface {
	Rooms(ctx context.Context) ([]ws.RoomView, error)
}

type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

type Handler struct {
	// Matches is nil when no database is configured
	Matches MatchStore
	Rooms   RoomLister
	Tokens  TokenIssuer
	// NewUserID hands out guest identities
	NewUserID func() (int64, error)
}

func NewHandler(matches MatchStore, rooms RoomLister, tokens TokenIssuer, newUserID func() (int64, error)) *Handler {
	return &Handler{
		Matches:   matches,
		Rooms:     rooms,
		Tokens:    tokens,
		NewUserID: newUserID,
	}
}

// getUserID reads the user_id set by the JWT middleware
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
