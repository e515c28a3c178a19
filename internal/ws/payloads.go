package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errRoomIDRequired = errors.New("room id required")

// client → server
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type MovePayload struct {
	PlayerID int    `json:"playerId"` // 1 | 2
	MyChoice string `json:"myChoice"`
	RoomID   string `json:"roomId"`
}

type roomIDPayload struct {
	RoomID string `json:"roomId"`
}

// server → client
type OutcomePayload struct {
	Message     string `json:"message,omitempty"`
	MyChoice    string `json:"myChoice"`
	EnemyChoice string `json:"enemyChoice"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// decodeRoomID accepts either a bare JSON string or {"roomId": "..."}
func decodeRoomID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errRoomIDRequired
	}

	var id string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
	} else {
		var p roomIDPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return "", err
		}
		id = p.RoomID
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", errRoomIDRequired
	}
	return id, nil
}

func decodeMove(raw json.RawMessage) (MovePayload, error) {
	var p MovePayload
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, errors.New("move payload required")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	p.RoomID = strings.TrimSpace(p.RoomID)
	p.MyChoice = strings.ToLower(strings.TrimSpace(p.MyChoice))
	return p, nil
}
