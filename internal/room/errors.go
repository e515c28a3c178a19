package room

import "errors"

// All of these are recoverable by the client; none is fatal to the process.
var (
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNoOpenRoom        = errors.New("no open room available")
	ErrRoomFull          = errors.New("room is full")
	ErrInvalidRoomID     = errors.New("room id is required")

	ErrAlreadyInRoom = errors.New("connection already sits in a room")
	ErrNotSeated     = errors.New("connection is not seated in that slot")
	ErrRoomNotActive = errors.New("room is waiting for a second player")
	ErrInvalidSlot   = errors.New("slot must be 1 or 2")
	ErrInvalidMove   = errors.New("invalid move")
)
