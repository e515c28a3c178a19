package ws

const (
	// client - server
	EventCreateRoom = "create-room"
	EventJoinRoom   = "join-room"
	EventJoinRandom = "join-random"
	EventMakeMove   = "make-move"
	EventLeaveRoom  = "leave-room"

	// server - client
	EventDisplayError        = "display-error"
	EventRoomCreated         = "room-created"
	EventRoomJoined          = "room-joined"
	EventPlayer1Connected    = "player-1-connected"
	EventPlayer2Connected    = "player-2-connected"
	EventDraw                = "draw"
	EventPlayer1Wins         = "player-1-wins"
	EventPlayer2Wins         = "player-2-wins"
	EventPlayer1Disconnected = "player-1-disconnected"
	EventPlayer2Disconnected = "player-2-disconnected"
)

// Message is one frame in either direction
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func connectedEvent(slot int) string {
	if slot == 2 {
		return EventPlayer2Connected
	}
	return EventPlayer1Connected
}

func disconnectedEvent(slot int) string {
	if slot == 2 {
		return EventPlayer2Disconnected
	}
	return EventPlayer1Disconnected
}
