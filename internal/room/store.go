package room

import (
	"strings"
	"time"
)

// Slot is a participant position, 1 or 2
type Slot int

const (
	NoSlot Slot = 0
	Slot1  Slot = 1
	Slot2  Slot = 2
)

func (s Slot) Valid() bool {
	return s == Slot1 || s == Slot2
}

// Other returns the opposite slot
func (s Slot) Other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

type State string

const (
	StateWaiting State = "waiting" // slot 2 empty, slot 1 occupied
	StateActive  State = "active"  // both slots occupied
	StateVacant  State = "vacant"  // slot 1 empty
)

type Room struct {
	ID        string    `json:"room_id"`
	Slots     [2]ConnID `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	// EmptySince is set when the last participant leaves
	EmptySince time.Time `json:"-"`
}

func (r *Room) Occupant(s Slot) ConnID {
	if !s.Valid() {
		return ""
	}
	return r.Slots[s-1]
}

func (r *Room) State() State {
	switch {
	case r.Slots[0] == "":
		return StateVacant
	case r.Slots[1] == "":
		return StateWaiting
	default:
		return StateActive
	}
}

func (r *Room) Empty() bool {
	return r.Slots[0] == "" && r.Slots[1] == ""
}

// Occupants returns the connections in slot order, skipping empty slots
func (r *Room) Occupants() []ConnID {
	out := make([]ConnID, 0, 2)
	for _, c := range r.Slots {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Store keeps rooms in creation order. It has no locking: the owner
// serializes access.
type Store struct {
	rooms map[string]*Room
	order []string
	now   func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		rooms: make(map[string]*Room),
		now:   now,
	}
}

func (s *Store) Create(roomID string, conn ConnID) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrInvalidRoomID
	}
	if _, ok := s.rooms[roomID]; ok {
		return ErrRoomAlreadyExists
	}

	s.rooms[roomID] = &Room{
		ID:        roomID,
		Slots:     [2]ConnID{conn, ""},
		CreatedAt: s.now(),
	}
	s.order = append(s.order, roomID)
	return nil
}

// Join seats conn in slot 2, or in slot 1 when slot 1 was vacated.
// A room with both slots taken fails with ErrRoomFull and is never overwritten.
// Deliberate deviation: a room shaped (empty, B) is not full; the joiner takes
// slot 1 so the departed creator's seat can be refilled.
func (s *Store) Join(roomID string, conn ConnID) (Slot, error) {
	r, ok := s.rooms[roomID]
	if !ok {
		return NoSlot, ErrRoomNotFound
	}

	var slot Slot
	switch {
	case r.Slots[0] == "":
		slot = Slot1
	case r.Slots[1] == "":
		slot = Slot2
	default:
		return NoSlot, ErrRoomFull
	}

	r.Slots[slot-1] = conn
	r.EmptySince = time.Time{}
	return slot, nil
}

// FindOpen returns the earliest-created room waiting for its second player.
// Deliberate deviation: a room with slot 2 empty but no creator in slot 1
// (vacant, kept under RetainPersist) is skipped, so random matchmaking never
// parks a player alone in an abandoned room.
func (s *Store) FindOpen() (string, bool) {
	for _, id := range s.order {
		if s.rooms[id].State() == StateWaiting {
			return id, true
		}
	}
	return "", false
}

// Exit clears a slot; absent rooms and empty slots are a no-op
func (s *Store) Exit(roomID string, slot Slot) {
	r, ok := s.rooms[roomID]
	if !ok || !slot.Valid() || r.Slots[slot-1] == "" {
		return
	}

	r.Slots[slot-1] = ""
	if r.Empty() {
		r.EmptySince = s.now()
	}
}

func (s *Store) Get(roomID string) (*Room, bool) {
	r, ok := s.rooms[roomID]
	return r, ok
}

func (s *Store) Delete(roomID string) {
	if _, ok := s.rooms[roomID]; !ok {
		return
	}
	delete(s.rooms, roomID)

	for i, id := range s.order {
		if id == roomID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// Snapshot returns copies of all rooms in creation order
func (s *Store) Snapshot() []Room {
	out := make([]Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.rooms[id])
	}
	return out
}
