package ws

import (
	"encoding/json"
	"errors"

	"rps_webapp/internal/game"
	"rps_webapp/internal/room"
)

var (
	errMalformed    = errors.New("malformed message")
	errUnknownEvent = errors.New("unknown event type")
)

// toConn queues msg for one connection. A client whose queue is full is
// dropped rather than stalling the loop.
func (g *Gateway) toConn(c *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		errorsTotal.WithLabelValues("slow_consumer").Inc()
		g.logger.Warn("send queue full, dropping client", "conn", c.ID)
		c.close()
	}
}

// toRoom queues msg for every occupant of roomID
func (g *Gateway) toRoom(roomID string, msg Message) {
	g.toRoomExcept(roomID, "", msg)
}

// toRoomExcept queues msg for every occupant of roomID but skip
func (g *Gateway) toRoomExcept(roomID string, skip room.ConnID, msg Message) {
	r, ok := g.coord.Room(roomID)
	if !ok {
		return
	}
	for _, id := range r.Occupants() {
		if id == skip {
			continue
		}
		if c, ok := g.clients[id]; ok {
			g.toConn(c, msg)
		}
	}
}

// fail reports err to the originating connection only
func (g *Gateway) fail(c *Client, err error) {
	kind := errorKind(err)
	errorsTotal.WithLabelValues(kind).Inc()
	g.logger.Debug("request failed", "conn", c.ID, "kind", kind, "error", err)

	g.toConn(c, Message{Type: EventDisplayError, Payload: ErrorPayload{Message: errorMessage(err)}})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomAlreadyExists):
		return "Room ID already exists, please choose another one"
	case errors.Is(err, room.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, room.ErrNoOpenRoom):
		return "No room available, create one instead"
	case errors.Is(err, room.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, room.ErrInvalidRoomID), errors.Is(err, errRoomIDRequired):
		return "Room ID is required"
	case errors.Is(err, room.ErrAlreadyInRoom):
		return "You are already in a room"
	case errors.Is(err, room.ErrNotSeated):
		return "You are not a player in that slot"
	case errors.Is(err, room.ErrRoomNotActive):
		return "Waiting for the other player"
	case errors.Is(err, room.ErrInvalidSlot):
		return "playerId must be 1 or 2"
	case errors.Is(err, room.ErrInvalidMove), errors.Is(err, game.ErrUnknownMove):
		return "Invalid move"
	case errors.Is(err, errUnknownEvent):
		return "Unknown event"
	default:
		return "Malformed message"
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomAlreadyExists):
		return "room_exists"
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrNoOpenRoom):
		return "no_open_room"
	case errors.Is(err, room.ErrRoomFull):
		return "room_full"
	case errors.Is(err, room.ErrAlreadyInRoom):
		return "already_in_room"
	case errors.Is(err, room.ErrNotSeated):
		return "not_seated"
	case errors.Is(err, room.ErrRoomNotActive):
		return "room_not_active"
	case errors.Is(err, room.ErrInvalidSlot), errors.Is(err, room.ErrInvalidMove),
		errors.Is(err, room.ErrInvalidRoomID), errors.Is(err, errRoomIDRequired):
		return "invalid_input"
	case errors.Is(err, errUnknownEvent):
		return "unknown_event"
	default:
		return "malformed"
	}
}
