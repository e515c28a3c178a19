package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"rps_webapp/internal/logger"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	addr := flag.String("addr", "", "server host:port (default 127.0.0.1:$APP_PORT)")
	flag.Parse()

	if *addr == "" {
		port := os.Getenv("APP_PORT")
		if port == "" {
			port = "8080"
		}
		// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
		*addr = "127.0.0.1:" + port
	}

	tokenA := guestToken(*addr)
	tokenB := guestToken(*addr)

	connA := dial(*addr, tokenA, "A")
	defer connA.Close()
	connB := dial(*addr, tokenB, "B")
	defer connB.Close()

	roomID := "smoke-" + uuid.NewString()[:8]

	send(connA, "create-room", roomID)
	expect(connA, "A", "room-created", "player-1-connected")

	send(connB, "join-room", roomID)
	expect(connB, "B", "room-joined", "player-2-connected")
	expect(connA, "A", "player-2-connected")

	send(connA, "make-move", map[string]any{"playerId": 1, "myChoice": "rock", "roomId": roomID})
	send(connB, "make-move", map[string]any{"playerId": 2, "myChoice": "scissors", "roomId": roomID})

	expect(connA, "A", "player-1-wins")
	expect(connB, "B", "player-1-wins")

	logger.Info("smoke test finished", "room", roomID)
}

func guestToken(addr string) string {
	res, err := http.Post("http://"+addr+"/api/v1/auth/guest", "application/json", nil)
	if err != nil {
		logger.Fatal("guest token", "error", err)
	}
	defer res.Body.Close()

	var body struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Token == "" {
		logger.Fatal("guest token: bad response", "status", res.StatusCode, "error", err)
	}
	return body.Token
}

func dial(addr, token, name string) *websocket.Conn {
	url := fmt.Sprintf("ws://%s/ws?token=%s", addr, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Fatal("dial", "client", name, "error", err)
	}
	return conn
}

func send(conn *websocket.Conn, typ string, payload any) {
	msg, err := json.Marshal(map[string]any{"type": typ, "payload": payload})
	if err != nil {
		logger.Fatal("marshal", "error", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		logger.Fatal("write", "type", typ, "error", err)
	}
}

// expect reads frames in order and fails on the first mismatch
func expect(conn *websocket.Conn, name string, types ...string) {
	for _, want := range types {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			logger.Fatal("read", "client", name, "want", want, "error", err)
		}
		if f.Type != want {
			logger.Fatal("unexpected frame", "client", name, "want", want, "got", f.Type, "payload", string(f.Payload))
		}
		logger.Info("got", "client", name, "type", f.Type, "payload", string(f.Payload))
	}
}
