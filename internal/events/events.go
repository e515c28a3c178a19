// Package events publishes room and match notifications to NATS
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectRoomCreated   = "rps.room.created"
	SubjectRoomJoined    = "rps.room.joined"
	SubjectRoomLeft      = "rps.room.left"
	SubjectMatchResolved = "rps.match.resolved"
)

// RoomEvent is published on create, join and leave
type RoomEvent struct {
	RoomID string    `json:"room_id"`
	UserID int64     `json:"user_id"`
	Slot   int       `json:"slot"`
	At     time.Time `json:"at"`
}

// MatchEvent is published once per resolved round
type MatchEvent struct {
	RoomID    string    `json:"room_id"`
	Result    string    `json:"result"`
	PlayerAID int64     `json:"player_a_id"`
	PlayerBID int64     `json:"player_b_id"`
	ChoiceA   string    `json:"choice_a"`
	ChoiceB   string    `json:"choice_b"`
	At        time.Time `json:"at"`
}

// Publisher is fire-and-forget: failures are logged, never returned
type Publisher interface {
	Publish(subject string, v any)
	Close()
}

type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("rps_webapp"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) Publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("marshal event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("publish event", "subject", subject, "error", err)
	}
}

// Close flushes buffered events and closes the connection
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(string, any) {}
func (Nop) Close()              {}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Published
}

type Published struct {
	Subject string
	Payload any
}

func (r *Recorder) Publish(subject string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Published{Subject: subject, Payload: v})
}

func (r *Recorder) Close() {}

// Subjects returns the published subjects in order
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Subject
	}
	return out
}
