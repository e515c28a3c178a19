package room

import (
	"fmt"
	"time"

	"rps_webapp/internal/game"
)

// Retention decides what happens to a room once both slots are empty
type Retention string

const (
	// RetainEvict deletes the room as soon as it is empty
	RetainEvict Retention = "evict"
	// RetainPersist keeps empty rooms until Sweep removes idle ones
	RetainPersist Retention = "persist"
)

type Options struct {
	Ruleset   *game.Ruleset
	Retention Retention
	Now       func() time.Time
}

// Seat is where a connection sits
type Seat struct {
	RoomID string
	Slot   Slot
}

// JoinResult describes a successful join
type JoinResult struct {
	Seat
	// Active is true when the join filled the room
	Active bool
	// Opponent is the other occupant, if any
	Opponent ConnID
}

// Departure describes what an exit left behind
type Departure struct {
	Seat
	Remaining []ConnID
	Deleted   bool
}

// Coordinator owns every room, pending pair, seat and live connection.
// It is not safe for concurrent use; a single goroutine drives it.
type Coordinator struct {
	rooms     *Store
	moves     *MoveStore
	registry  *Registry
	seats     map[ConnID]Seat
	rules     *game.Ruleset
	retention Retention
	now       func() time.Time
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Ruleset == nil {
		opts.Ruleset = game.Classic()
	}
	if opts.Retention == "" {
		opts.Retention = RetainEvict
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Coordinator{
		rooms:     NewStore(opts.Now),
		moves:     NewMoveStore(),
		registry:  NewRegistry(),
		seats:     make(map[ConnID]Seat),
		rules:     opts.Ruleset,
		retention: opts.Retention,
		now:       opts.Now,
	}
}

func (c *Coordinator) Ruleset() *game.Ruleset {
	return c.rules
}

// Connect marks conn as a live participant
func (c *Coordinator) Connect(conn ConnID) {
	c.registry.MarkActive(conn)
}

// Disconnect vacates the seat of conn, if any, and forgets it
func (c *Coordinator) Disconnect(conn ConnID) (Departure, bool) {
	c.registry.Remove(conn)
	return c.Exit(conn)
}

// Create opens roomID with conn in slot 1
func (c *Coordinator) Create(roomID string, conn ConnID) error {
	if _, seated := c.seats[conn]; seated {
		return ErrAlreadyInRoom
	}
	if err := c.rooms.Create(roomID, conn); err != nil {
		return fmt.Errorf("create %q: %w", roomID, err)
	}

	c.seats[conn] = Seat{RoomID: roomID, Slot: Slot1}
	return nil
}

// Join seats conn in roomID; a join that fills the room starts a fresh pair
func (c *Coordinator) Join(roomID string, conn ConnID) (JoinResult, error) {
	if _, seated := c.seats[conn]; seated {
		return JoinResult{}, ErrAlreadyInRoom
	}

	slot, err := c.rooms.Join(roomID, conn)
	if err != nil {
		return JoinResult{}, fmt.Errorf("join %q: %w", roomID, err)
	}

	seat := Seat{RoomID: roomID, Slot: slot}
	c.seats[conn] = seat

	r, _ := c.rooms.Get(roomID)
	res := JoinResult{Seat: seat, Opponent: r.Occupant(slot.Other())}
	if r.State() == StateActive {
		c.moves.Initialize(roomID)
		res.Active = true
	}
	return res, nil
}

// JoinRandom joins the earliest-created room waiting for a second player.
// It never creates a room.
func (c *Coordinator) JoinRandom(conn ConnID) (JoinResult, error) {
	if _, seated := c.seats[conn]; seated {
		return JoinResult{}, ErrAlreadyInRoom
	}

	roomID, ok := c.rooms.FindOpen()
	if !ok {
		return JoinResult{}, ErrNoOpenRoom
	}
	return c.Join(roomID, conn)
}

// Exit removes conn from its room and keeps it connected. ok is false when
// conn sat nowhere.
func (c *Coordinator) Exit(conn ConnID) (Departure, bool) {
	seat, ok := c.seats[conn]
	if !ok {
		return Departure{}, false
	}
	delete(c.seats, conn)

	c.rooms.Exit(seat.RoomID, seat.Slot)
	c.moves.Drop(seat.RoomID)

	dep := Departure{Seat: seat}
	r, ok := c.rooms.Get(seat.RoomID)
	if !ok {
		return dep, true
	}

	dep.Remaining = r.Occupants()
	if r.Empty() && c.retention == RetainEvict {
		c.rooms.Delete(seat.RoomID)
		dep.Deleted = true
	}
	return dep, true
}

// SubmitMove records the move of conn in the claimed slot. When both moves
// are present it returns the outcome; the caller delivers it and then calls
// CompleteRound.
func (c *Coordinator) SubmitMove(conn ConnID, roomID string, slot Slot, move game.Move) (*game.Outcome, error) {
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	if !c.rules.Valid(move) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMove, move)
	}

	r, ok := c.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("move in %q: %w", roomID, ErrRoomNotFound)
	}
	if r.Occupant(slot) != conn {
		return nil, ErrNotSeated
	}

	if err := c.moves.Submit(roomID, slot, move); err != nil {
		return nil, err
	}
	if !c.moves.BothSubmitted(roomID) {
		return nil, nil
	}

	pair, _ := c.moves.Pair(roomID)
	out, err := c.rules.Resolve(pair)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteRound resets the pending pair after the outcome went out
func (c *Coordinator) CompleteRound(roomID string) {
	c.moves.Reset(roomID)
}

// Sweep deletes rooms that have been empty for longer than idle
func (c *Coordinator) Sweep(idle time.Duration) []string {
	now := c.now()

	var removed []string
	for _, r := range c.rooms.Snapshot() {
		if r.Empty() && !r.EmptySince.IsZero() && now.Sub(r.EmptySince) > idle {
			c.rooms.Delete(r.ID)
			c.moves.Drop(r.ID)
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func (c *Coordinator) SeatOf(conn ConnID) (Seat, bool) {
	s, ok := c.seats[conn]
	return s, ok
}

// IsActive reports whether conn is connected, seated or not
func (c *Coordinator) IsActive(conn ConnID) bool {
	return c.registry.IsActive(conn)
}

func (c *Coordinator) Connections() int {
	return c.registry.Len()
}

// Room returns a copy of roomID
func (c *Coordinator) Room(roomID string) (Room, bool) {
	r, ok := c.rooms.Get(roomID)
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Pair returns the pending choices of roomID
func (c *Coordinator) Pair(roomID string) ([2]game.Move, bool) {
	return c.moves.Pair(roomID)
}

func (c *Coordinator) Rooms() []Room {
	return c.rooms.Snapshot()
}

func (c *Coordinator) RoomCount() int {
	return c.rooms.Len()
}
