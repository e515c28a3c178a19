package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"rps_webapp/internal/domain"
	"rps_webapp/internal/events"
	"rps_webapp/internal/game"
	"rps_webapp/internal/room"
)

const (
	eventBuffer    = 256
	persistTimeout = 5 * time.Second
	drawMessage    = "It's a draw!"
)

var ErrGatewayStopped = errors.New("gateway stopped")

// MatchRecorder stores resolved rounds
type MatchRecorder interface {
	Record(ctx context.Context, m *domain.Match) error
}

type Options struct {
	Coordinator *room.Coordinator
	Recorder    MatchRecorder
	Publisher   events.Publisher
	Logger      *slog.Logger
	// IdleTTL enables the janitor for retained empty rooms; 0 disables it
	IdleTTL    time.Duration
	SweepEvery time.Duration
}

type eventKind int

const (
	kindRegister eventKind = iota
	kindUnregister
	kindMessage
)

type event struct {
	kind   eventKind
	client *Client
	data   []byte
}

// Gateway runs every room operation on one goroutine. Client pumps only
// enqueue events and drain their own send queue.
type Gateway struct {
	coord     *room.Coordinator
	recorder  MatchRecorder
	publisher events.Publisher
	logger    *slog.Logger

	idleTTL    time.Duration
	sweepEvery time.Duration

	clients map[room.ConnID]*Client
	events  chan event
	calls   chan func()
	done    chan struct{}
	stop    sync.Once

	// async persistence
	wg sync.WaitGroup
}

func NewGateway(opts Options) *Gateway {
	if opts.Coordinator == nil {
		opts.Coordinator = room.NewCoordinator(room.Options{})
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}

	return &Gateway{
		coord:      opts.Coordinator,
		recorder:   opts.Recorder,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
		idleTTL:    opts.IdleTTL,
		sweepEvery: opts.SweepEvery,
		clients:    make(map[room.ConnID]*Client),
		events:     make(chan event, eventBuffer),
		calls:      make(chan func()),
		done:       make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled
func (g *Gateway) Run(ctx context.Context) {
	defer g.shutdown()

	var sweep <-chan time.Time
	if g.idleTTL > 0 {
		ticker := time.NewTicker(g.sweepEvery)
		defer ticker.Stop()
		sweep = ticker.C
	}

	g.logger.Info("gateway started", "idle_ttl", g.idleTTL)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-g.events:
			g.handle(ev)
		case fn := <-g.calls:
			fn()
		case <-sweep:
			g.sweep()
		}
	}
}

func (g *Gateway) shutdown() {
	g.stop.Do(func() { close(g.done) })

	for id, c := range g.clients {
		delete(g.clients, id)
		close(c.send)
	}
	connectionsActive.Set(0)

	g.wg.Wait()
	g.logger.Info("gateway stopped")
}

// Register hands c to the loop. It reports false once the gateway stopped.
func (g *Gateway) Register(c *Client) bool {
	return g.enqueue(event{kind: kindRegister, client: c})
}

func (g *Gateway) Unregister(c *Client) {
	g.enqueue(event{kind: kindUnregister, client: c})
}

// Dispatch queues one inbound frame of c
func (g *Gateway) Dispatch(c *Client, data []byte) bool {
	return g.enqueue(event{kind: kindMessage, client: c, data: data})
}

func (g *Gateway) enqueue(ev event) bool {
	select {
	case <-g.done:
		return false
	default:
	}

	select {
	case g.events <- ev:
		return true
	case <-g.done:
		return false
	}
}

// call runs fn on the loop and waits for it
func (g *Gateway) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case g.calls <- wrapped:
	case <-g.done:
		return ErrGatewayStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomView is the public listing of one room
type RoomView struct {
	RoomID    string     `json:"room_id"`
	State     room.State `json:"state"`
	Players   int        `json:"players"`
	CreatedAt time.Time  `json:"created_at"`
}

// Rooms lists rooms in creation order
func (g *Gateway) Rooms(ctx context.Context) ([]RoomView, error) {
	var out []RoomView
	err := g.call(ctx, func() {
		rooms := g.coord.Rooms()
		out = make([]RoomView, 0, len(rooms))
		for i := range rooms {
			r := &rooms[i]
			out = append(out, RoomView{
				RoomID:    r.ID,
				State:     r.State(),
				Players:   len(r.Occupants()),
				CreatedAt: r.CreatedAt,
			})
		}
	})
	return out, err
}

func (g *Gateway) handle(ev event) {
	switch ev.kind {
	case kindRegister:
		g.clients[ev.client.ID] = ev.client
		g.coord.Connect(ev.client.ID)
		g.logger.Debug("client registered", "conn", ev.client.ID, "user_id", ev.client.UserID)

	case kindUnregister:
		c, ok := g.clients[ev.client.ID]
		if !ok {
			return
		}
		g.depart(c, true)
		delete(g.clients, c.ID)
		close(c.send)
		g.logger.Debug("client unregistered", "conn", c.ID)

	case kindMessage:
		if _, ok := g.clients[ev.client.ID]; !ok {
			return
		}
		g.handleMessage(ev.client, ev.data)
	}

	connectionsActive.Set(float64(g.coord.Connections()))
	roomsGauge.Set(float64(g.coord.RoomCount()))
}

func (g *Gateway) handleMessage(c *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("handler panic", "conn", c.ID, "panic", r)
			errorsTotal.WithLabelValues("panic").Inc()
			g.toConn(c, Message{Type: EventDisplayError, Payload: ErrorPayload{Message: "internal error"}})
		}
	}()

	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		eventsTotal.WithLabelValues("malformed").Inc()
		g.fail(c, errMalformed)
		return
	}

	switch frame.Type {
	case EventCreateRoom:
		g.handleCreate(c, frame.Payload)
	case EventJoinRoom:
		g.handleJoin(c, frame.Payload)
	case EventJoinRandom:
		g.handleJoinRandom(c)
	case EventMakeMove:
		g.handleMove(c, frame.Payload)
	case EventLeaveRoom:
		g.handleLeave(c)
	default:
		eventsTotal.WithLabelValues("unknown").Inc()
		g.fail(c, errUnknownEvent)
		return
	}
	eventsTotal.WithLabelValues(frame.Type).Inc()
}

func (g *Gateway) handleCreate(c *Client, payload json.RawMessage) {
	roomID, err := decodeRoomID(payload)
	if err != nil {
		g.fail(c, err)
		return
	}

	if err := g.coord.Create(roomID, c.ID); err != nil {
		g.fail(c, err)
		return
	}

	g.logger.Info("room created", "room", roomID, "user_id", c.UserID)
	g.toConn(c, Message{Type: EventRoomCreated, Payload: roomID})
	g.toConn(c, Message{Type: EventPlayer1Connected})

	g.publisher.Publish(events.SubjectRoomCreated, events.RoomEvent{
		RoomID: roomID, UserID: c.UserID, Slot: int(room.Slot1), At: time.Now(),
	})
}

func (g *Gateway) handleJoin(c *Client, payload json.RawMessage) {
	roomID, err := decodeRoomID(payload)
	if err != nil {
		g.fail(c, err)
		return
	}

	res, err := g.coord.Join(roomID, c.ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.joined(c, res)
}

func (g *Gateway) handleJoinRandom(c *Client) {
	res, err := g.coord.JoinRandom(c.ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	g.joined(c, res)
}

func (g *Gateway) joined(c *Client, res room.JoinResult) {
	slot := int(res.Slot)
	g.logger.Info("room joined", "room", res.RoomID, "slot", slot, "user_id", c.UserID, "active", res.Active)

	connected := Message{Type: connectedEvent(slot)}
	g.toConn(c, Message{Type: EventRoomJoined, Payload: res.RoomID})
	g.toConn(c, connected)
	g.toRoomExcept(res.RoomID, c.ID, connected)

	g.publisher.Publish(events.SubjectRoomJoined, events.RoomEvent{
		RoomID: res.RoomID, UserID: c.UserID, Slot: slot, At: time.Now(),
	})
}

func (g *Gateway) handleMove(c *Client, payload json.RawMessage) {
	p, err := decodeMove(payload)
	if err != nil {
		g.fail(c, err)
		return
	}
	if p.RoomID == "" {
		seat, ok := g.coord.SeatOf(c.ID)
		if !ok {
			g.fail(c, room.ErrNotSeated)
			return
		}
		p.RoomID = seat.RoomID
	}

	out, err := g.coord.SubmitMove(c.ID, p.RoomID, room.Slot(p.PlayerID), game.Move(p.MyChoice))
	if err != nil {
		g.fail(c, err)
		return
	}
	if out == nil {
		return
	}

	// the outcome is queued to every seat before the pair is cleared
	g.broadcastOutcome(p.RoomID, *out)
	g.coord.CompleteRound(p.RoomID)
	roundsTotal.WithLabelValues(string(out.Result())).Inc()

	g.recordRound(p.RoomID, *out)
}

func (g *Gateway) broadcastOutcome(roomID string, out game.Outcome) {
	r, ok := g.coord.Room(roomID)
	if !ok {
		return
	}

	for _, slot := range []room.Slot{room.Slot1, room.Slot2} {
		c, ok := g.clients[r.Occupant(slot)]
		if !ok {
			continue
		}

		mine, enemy := out.Own(int(slot))
		payload := OutcomePayload{MyChoice: string(mine), EnemyChoice: string(enemy)}
		if out.Draw() {
			payload.Message = drawMessage
		}
		g.toConn(c, Message{Type: string(out.Result()), Payload: payload})
	}
}

func (g *Gateway) handleLeave(c *Client) {
	if !g.depart(c, false) {
		g.fail(c, room.ErrNotSeated)
	}
}

// depart removes c from its room and tells whoever is left. A disconnect
// also drops c from the connection registry.
func (g *Gateway) depart(c *Client, disconnect bool) bool {
	exit := g.coord.Exit
	if disconnect {
		exit = g.coord.Disconnect
	}

	dep, ok := exit(c.ID)
	if !ok {
		return false
	}

	slot := int(dep.Slot)
	g.logger.Info("room left", "room", dep.RoomID, "slot", slot, "user_id", c.UserID, "deleted", dep.Deleted)

	if len(dep.Remaining) > 0 {
		g.toRoom(dep.RoomID, Message{Type: disconnectedEvent(slot)})
	}

	g.publisher.Publish(events.SubjectRoomLeft, events.RoomEvent{
		RoomID: dep.RoomID, UserID: c.UserID, Slot: slot, At: time.Now(),
	})
	return true
}

func (g *Gateway) sweep() {
	removed := g.coord.Sweep(g.idleTTL)
	if len(removed) > 0 {
		g.logger.Info("idle rooms removed", "count", len(removed), "rooms", removed)
		roomsGauge.Set(float64(g.coord.RoomCount()))
	}
}

// recordRound hands the result to storage and the event bus off the loop
func (g *Gateway) recordRound(roomID string, out game.Outcome) {
	r, ok := g.coord.Room(roomID)
	if !ok {
		return
	}

	var users [2]int64
	for i, slot := range []room.Slot{room.Slot1, room.Slot2} {
		if c, ok := g.clients[r.Occupant(slot)]; ok {
			users[i] = c.UserID
		}
	}

	match := &domain.Match{
		RoomID:     roomID,
		PlayerAID:  users[0],
		PlayerBID:  users[1],
		ChoiceA:    string(out.Choices[0]),
		ChoiceB:    string(out.Choices[1]),
		WinnerSlot: out.Winner,
	}

	g.publisher.Publish(events.SubjectMatchResolved, events.MatchEvent{
		RoomID:    roomID,
		Result:    string(out.Result()),
		PlayerAID: match.PlayerAID,
		PlayerBID: match.PlayerBID,
		ChoiceA:   match.ChoiceA,
		ChoiceB:   match.ChoiceB,
		At:        time.Now(),
	})

	if g.recorder == nil {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := g.recorder.Record(ctx, match); err != nil {
			errorsTotal.WithLabelValues("persist").Inc()
			g.logger.Error("record match", "room", roomID, "error", err)
		}
	}()
}
