package room

import "rps_webapp/internal/game"

// MoveStore holds the pending choice pair of every active room
type MoveStore struct {
	pairs map[string]*[2]game.Move
}

func NewMoveStore() *MoveStore {
	return &MoveStore{pairs: make(map[string]*[2]game.Move)}
}

// Initialize starts a fresh pair once both participants are present
func (m *MoveStore) Initialize(roomID string) {
	m.pairs[roomID] = &[2]game.Move{}
}

// Submit overwrites the pending choice of a slot. Resubmission in the same
// round simply replaces the earlier choice.
func (m *MoveStore) Submit(roomID string, slot Slot, move game.Move) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	p, ok := m.pairs[roomID]
	if !ok {
		return ErrRoomNotActive
	}
	p[slot-1] = move
	return nil
}

func (m *MoveStore) BothSubmitted(roomID string) bool {
	p, ok := m.pairs[roomID]
	return ok && p[0] != game.NoMove && p[1] != game.NoMove
}

// Reset clears the pair of roomID after a resolved round
func (m *MoveStore) Reset(roomID string) {
	if p, ok := m.pairs[roomID]; ok {
		*p = [2]game.Move{}
	}
}

func (m *MoveStore) Pair(roomID string) ([2]game.Move, bool) {
	p, ok := m.pairs[roomID]
	if !ok {
		return [2]game.Move{}, false
	}
	return *p, true
}

// Drop forgets the pair; the room is no longer active
func (m *MoveStore) Drop(roomID string) {
	delete(m.pairs, roomID)
}
