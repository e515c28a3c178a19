package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rps_webapp/internal/domain"
	"rps_webapp/internal/events"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/room"
)

type fakeRecorder struct {
	mu      sync.Mutex
	matches []domain.Match
}

func (f *fakeRecorder) Record(_ context.Context, m *domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, *m)
	return nil
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type harness struct {
	t        *testing.T
	g        *Gateway
	recorder *fakeRecorder
	events   *events.Recorder
	seq      int
}

func newHarness(t *testing.T, opts room.Options) *harness {
	t.Helper()
	rec := &fakeRecorder{}
	pub := &events.Recorder{}
	g := NewGateway(Options{
		Coordinator: room.NewCoordinator(opts),
		Recorder:    rec,
		Publisher:   pub,
		Logger:      logger.Discard(),
	})
	return &harness{t: t, g: g, recorder: rec, events: pub}
}

// connect registers a client that has no socket behind it
func (h *harness) connect(userID int64) *Client {
	h.seq++
	c := &Client{
		ID:      room.ConnID(fmt.Sprintf("conn-%d", h.seq)),
		UserID:  userID,
		send:    make(chan []byte, sendBuffer),
		gateway: h.g,
	}
	h.g.handle(event{kind: kindRegister, client: c})
	return c
}

func (h *harness) send(c *Client, typ string, payload any) {
	h.t.Helper()
	frame := map[string]any{"type": typ}
	if payload != nil {
		frame["payload"] = payload
	}
	data, err := json.Marshal(frame)
	require.NoError(h.t, err)
	h.g.handle(event{kind: kindMessage, client: c, data: data})
}

func (h *harness) disconnect(c *Client) {
	h.g.handle(event{kind: kindUnregister, client: c})
}

// drain returns every frame queued for c so far
func drain(t *testing.T, c *Client) []received {
	t.Helper()
	var out []received
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var m received
			require.NoError(t, json.Unmarshal(data, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func types(msgs []received) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func outcome(t *testing.T, m received) OutcomePayload {
	t.Helper()
	var p OutcomePayload
	require.NoError(t, json.Unmarshal(m.Payload, &p))
	return p
}

func errorText(t *testing.T, m received) string {
	t.Helper()
	require.Equal(t, EventDisplayError, m.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(m.Payload, &p))
	return p.Message
}

func move(slot int, choice, roomID string) MovePayload {
	return MovePayload{PlayerID: slot, MyChoice: choice, RoomID: roomID}
}

func TestGateway_CreateRoom(t *testing.T) {
	h := newHarness(t, room.Options{})
	a := h.connect(1)

	h.send(a, EventCreateRoom, "r1")

	msgs := drain(t, a)
	require.Equal(t, []string{EventRoomCreated, EventPlayer1Connected}, types(msgs))
	assert.JSONEq(t, `"r1"`, string(msgs[0].Payload))
	assert.Equal(t, []string{events.SubjectRoomCreated}, h.events.Subjects())
}

func TestGateway_CreateRoomObjectPayload(t *testing.T) {
	h := newHarness(t, room.Options{})
	a := h.connect(1)

	h.send(a, EventCreateRoom, map[string]string{"roomId": "r1"})

	assert.Equal(t, []string{EventRoomCreated, EventPlayer1Connected}, types(drain(t, a)))
}

func TestGateway_DuplicateCreateOnlyTellsOrigin(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	drain(t, a)

	h.send(b, EventCreateRoom, "r1")

	msgs := drain(t, b)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Room ID already exists, please choose another one", errorText(t, msgs[0]))
	assert.Empty(t, drain(t, a))

	r, ok := h.g.coord.Room("r1")
	require.True(t, ok)
	assert.Equal(t, a.ID, r.Occupant(room.Slot1))
}

func TestGateway_JoinRoom(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	drain(t, a)

	h.send(b, EventJoinRoom, "r1")

	bMsgs := drain(t, b)
	require.Equal(t, []string{EventRoomJoined, EventPlayer2Connected}, types(bMsgs))
	assert.JSONEq(t, `"r1"`, string(bMsgs[0].Payload))
	assert.Equal(t, []string{EventPlayer2Connected}, types(drain(t, a)))

	pair, ok := h.g.coord.Pair("r1")
	require.True(t, ok)
	assert.Equal(t, "", string(pair[0]))
	assert.Equal(t, "", string(pair[1]))
}

func TestGateway_JoinErrors(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b, c := h.connect(1), h.connect(2), h.connect(3)

	h.send(c, EventJoinRoom, "missing")
	assert.Equal(t, "Room not found", errorText(t, drain(t, c)[0]))

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(c, EventJoinRoom, "r1")
	assert.Equal(t, "Room is full", errorText(t, drain(t, c)[0]))

	h.send(a, EventJoinRoom, "r1")
	assert.Equal(t, "You are already in a room", errorText(t, drain(t, a)[0]))

	h.send(c, EventJoinRoom, nil)
	assert.Equal(t, "Room ID is required", errorText(t, drain(t, c)[0]))
}

func TestGateway_JoinRandom(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b, c := h.connect(1), h.connect(2), h.connect(3)

	h.send(c, EventJoinRandom, nil)
	assert.Equal(t, "No room available, create one instead", errorText(t, drain(t, c)[0]))

	h.send(a, EventCreateRoom, "first")
	h.send(b, EventCreateRoom, "second")
	drain(t, a)
	drain(t, b)

	h.send(c, EventJoinRandom, nil)

	msgs := drain(t, c)
	require.Equal(t, []string{EventRoomJoined, EventPlayer2Connected}, types(msgs))
	assert.JSONEq(t, `"first"`, string(msgs[0].Payload))
	assert.Equal(t, []string{EventPlayer2Connected}, types(drain(t, a)))
	assert.Empty(t, drain(t, b))
}

func TestGateway_RoundOutcome(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(10), h.connect(20)

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(a, EventMakeMove, move(1, "rock", "r1"))
	assert.Empty(t, drain(t, a))
	assert.Empty(t, drain(t, b))

	h.send(b, EventMakeMove, move(2, "scissors", "r1"))

	aMsgs, bMsgs := drain(t, a), drain(t, b)
	require.Equal(t, []string{EventPlayer1Wins}, types(aMsgs))
	require.Equal(t, []string{EventPlayer1Wins}, types(bMsgs))
	assert.Equal(t, OutcomePayload{MyChoice: "rock", EnemyChoice: "scissors"}, outcome(t, aMsgs[0]))
	assert.Equal(t, OutcomePayload{MyChoice: "scissors", EnemyChoice: "rock"}, outcome(t, bMsgs[0]))

	pair, _ := h.g.coord.Pair("r1")
	assert.Equal(t, [2]string{"", ""}, [2]string{string(pair[0]), string(pair[1])})

	h.g.wg.Wait()
	require.Len(t, h.recorder.matches, 1)
	assert.Equal(t, domain.Match{
		RoomID: "r1", PlayerAID: 10, PlayerBID: 20, ChoiceA: "rock", ChoiceB: "scissors", WinnerSlot: 1,
	}, h.recorder.matches[0])
	assert.Contains(t, h.events.Subjects(), events.SubjectMatchResolved)
}

func TestGateway_DrawAndSecondRound(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(a, EventMakeMove, move(1, "Rock", "r1"))
	h.send(b, EventMakeMove, move(2, "rock", "r1"))

	aMsgs := drain(t, a)
	require.Equal(t, []string{EventDraw}, types(aMsgs))
	assert.Equal(t, OutcomePayload{Message: drawMessage, MyChoice: "rock", EnemyChoice: "rock"}, outcome(t, aMsgs[0]))
	drain(t, b)

	// a fresh round needs both moves again
	h.send(b, EventMakeMove, move(2, "rock", "r1"))
	assert.Empty(t, drain(t, a))

	h.send(a, EventMakeMove, move(1, "scissors", "r1"))
	assert.Equal(t, []string{EventPlayer2Wins}, types(drain(t, a)))
	bMsgs := drain(t, b)
	require.Equal(t, []string{EventPlayer2Wins}, types(bMsgs))
	assert.Equal(t, OutcomePayload{MyChoice: "rock", EnemyChoice: "scissors"}, outcome(t, bMsgs[0]))
}

func TestGateway_MoveErrors(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	drain(t, a)

	h.send(a, EventMakeMove, move(1, "rock", "r1"))
	assert.Equal(t, "Waiting for the other player", errorText(t, drain(t, a)[0]))

	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(b, EventMakeMove, move(1, "rock", "r1"))
	assert.Equal(t, "You are not a player in that slot", errorText(t, drain(t, b)[0]))

	h.send(b, EventMakeMove, move(3, "rock", "r1"))
	assert.Equal(t, "playerId must be 1 or 2", errorText(t, drain(t, b)[0]))

	h.send(b, EventMakeMove, move(2, "lizard", "r1"))
	assert.Equal(t, "Invalid move", errorText(t, drain(t, b)[0]))

	assert.Empty(t, drain(t, a))
}

func TestGateway_MoveWithoutRoomIDUsesSeat(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(a, EventMakeMove, move(1, "paper", ""))
	h.send(b, EventMakeMove, move(2, "rock", ""))

	assert.Equal(t, []string{EventPlayer1Wins}, types(drain(t, a)))
}

func TestGateway_Disconnect(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	h.send(a, EventMakeMove, move(1, "rock", "r1"))
	drain(t, a)
	drain(t, b)

	require.True(t, h.g.coord.IsActive(a.ID))
	h.disconnect(a)

	assert.Equal(t, []string{EventPlayer1Disconnected}, types(drain(t, b)))
	assert.False(t, h.g.coord.IsActive(a.ID))
	assert.True(t, h.g.coord.IsActive(b.ID))
	_, open := <-a.send
	assert.False(t, open, "send queue closed on unregister")

	// the pending move went with the departure
	r, ok := h.g.coord.Room("r1")
	require.True(t, ok)
	assert.Equal(t, room.StateVacant, r.State())

	c := h.connect(3)
	h.send(c, EventJoinRoom, "r1")
	assert.Equal(t, []string{EventRoomJoined, EventPlayer1Connected}, types(drain(t, c)))
	assert.Equal(t, []string{EventPlayer1Connected}, types(drain(t, b)))
}

func TestGateway_LoneDisconnectEvictsRoom(t *testing.T) {
	h := newHarness(t, room.Options{})
	a := h.connect(1)

	h.send(a, EventCreateRoom, "r1")
	h.disconnect(a)

	_, ok := h.g.coord.Room("r1")
	assert.False(t, ok)

	b := h.connect(2)
	h.send(b, EventCreateRoom, "r1")
	assert.Equal(t, []string{EventRoomCreated, EventPlayer1Connected}, types(drain(t, b)))
}

func TestGateway_LoneDisconnectPersist(t *testing.T) {
	h := newHarness(t, room.Options{Retention: room.RetainPersist})
	a := h.connect(1)

	h.send(a, EventCreateRoom, "r1")
	h.disconnect(a)

	_, ok := h.g.coord.Room("r1")
	assert.True(t, ok)

	b := h.connect(2)
	h.send(b, EventCreateRoom, "r1")
	assert.Equal(t, EventDisplayError, drain(t, b)[0].Type)
}

func TestGateway_LeaveRoom(t *testing.T) {
	h := newHarness(t, room.Options{})
	a, b := h.connect(1), h.connect(2)

	h.send(a, EventLeaveRoom, nil)
	assert.Equal(t, "You are not a player in that slot", errorText(t, drain(t, a)[0]))

	h.send(a, EventCreateRoom, "r1")
	h.send(b, EventJoinRoom, "r1")
	drain(t, a)
	drain(t, b)

	h.send(b, EventLeaveRoom, nil)
	assert.Equal(t, []string{EventPlayer2Disconnected}, types(drain(t, a)))
	assert.Empty(t, drain(t, b))
	assert.True(t, h.g.coord.IsActive(b.ID), "leaving a room keeps the connection registered")

	// still connected, free to join elsewhere
	h.send(b, EventCreateRoom, "r2")
	assert.Equal(t, []string{EventRoomCreated, EventPlayer1Connected}, types(drain(t, b)))
	assert.Contains(t, h.events.Subjects(), events.SubjectRoomLeft)
}

func TestGateway_BadFrames(t *testing.T) {
	h := newHarness(t, room.Options{})
	a := h.connect(1)

	h.g.handle(event{kind: kindMessage, client: a, data: []byte("{not json")})
	assert.Equal(t, "Malformed message", errorText(t, drain(t, a)[0]))

	h.send(a, "dance", nil)
	assert.Equal(t, "Unknown event", errorText(t, drain(t, a)[0]))

	h.send(a, EventMakeMove, "rock")
	assert.Equal(t, EventDisplayError, drain(t, a)[0].Type)
}

// panicPublisher blows up on one subject
type panicPublisher struct {
	events.Recorder
	subject string
}

func (p *panicPublisher) Publish(subject string, v any) {
	if subject == p.subject {
		panic("publish " + subject)
	}
	p.Recorder.Publish(subject, v)
}

func TestGateway_HandlerPanicOnlyTellsOrigin(t *testing.T) {
	pub := &panicPublisher{subject: events.SubjectRoomJoined}
	g := NewGateway(Options{Publisher: pub, Logger: logger.Discard()})
	h := &harness{t: t, g: g, recorder: &fakeRecorder{}, events: &pub.Recorder}

	a, b := h.connect(1), h.connect(2)
	h.send(a, EventCreateRoom, "r1")
	drain(t, a)

	h.send(b, EventJoinRoom, "r1")

	bMsgs := drain(t, b)
	require.NotEmpty(t, bMsgs)
	assert.Equal(t, "internal error", errorText(t, bMsgs[len(bMsgs)-1]))
	for _, m := range drain(t, a) {
		assert.NotEqual(t, EventDisplayError, m.Type, "the panic is reported to the origin only")
	}

	// the loop keeps going
	h.send(a, EventMakeMove, move(1, "rock", "r1"))
	h.send(b, EventMakeMove, move(2, "paper", "r1"))
	assert.Equal(t, []string{EventPlayer2Wins}, types(drain(t, a)))
	assert.Equal(t, []string{EventPlayer2Wins}, types(drain(t, b)))

	c := h.connect(3)
	h.send(c, EventCreateRoom, "r2")
	assert.Equal(t, []string{EventRoomCreated, EventPlayer1Connected}, types(drain(t, c)))
}

func TestGateway_IgnoresUnregisteredClient(t *testing.T) {
	h := newHarness(t, room.Options{})
	ghost := &Client{ID: "ghost", send: make(chan []byte, 1), gateway: h.g}

	h.send(ghost, EventCreateRoom, "r1")

	assert.Empty(t, drain(t, ghost))
	assert.Equal(t, 0, h.g.coord.RoomCount())
}

func TestGateway_FullQueueDoesNotBlock(t *testing.T) {
	h := newHarness(t, room.Options{})
	c := h.connect(1)
	c.send = make(chan []byte)

	done := make(chan struct{})
	go func() {
		h.send(c, EventCreateRoom, "r1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gateway blocked on a full send queue")
	}
}

func TestGateway_SweepIdleRooms(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	h := newHarness(t, room.Options{Retention: room.RetainPersist, Now: clock})
	h.g.idleTTL = time.Minute

	a := h.connect(1)
	h.send(a, EventCreateRoom, "r1")
	h.disconnect(a)

	h.g.sweep()
	assert.Equal(t, 1, h.g.coord.RoomCount())

	now = now.Add(2 * time.Minute)
	h.g.sweep()
	assert.Equal(t, 0, h.g.coord.RoomCount())
}

func TestGateway_RunAndRooms(t *testing.T) {
	h := newHarness(t, room.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		h.g.Run(ctx)
		close(stopped)
	}()

	c := &Client{ID: "c1", UserID: 1, send: make(chan []byte, sendBuffer), gateway: h.g}
	require.True(t, h.g.Register(c))
	require.True(t, h.g.Dispatch(c, []byte(`{"type":"create-room","payload":"lobby"}`)))

	require.Eventually(t, func() bool {
		rooms, err := h.g.Rooms(context.Background())
		return err == nil && len(rooms) == 1
	}, time.Second, 10*time.Millisecond)

	rooms, err := h.g.Rooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lobby", rooms[0].RoomID)
	assert.Equal(t, room.StateWaiting, rooms[0].State)
	assert.Equal(t, 1, rooms[0].Players)

	cancel()
	<-stopped

	assert.False(t, h.g.Register(&Client{ID: "late", send: make(chan []byte, 1), gateway: h.g}))
	_, err = h.g.Rooms(context.Background())
	assert.ErrorIs(t, err, ErrGatewayStopped)
}
