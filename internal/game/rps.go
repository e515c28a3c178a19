package game

import (
	"fmt"
	"sort"
)

// Ruleset is the process-wide beats-relation: each move maps to the single
// move it defeats. It is immutable after construction.
type Ruleset struct {
	beats map[Move]Move
	moves []Move
}

// Classic returns rock/paper/scissors
func Classic() *Ruleset {
	r, err := NewRuleset(map[Move]Move{
		Rock:     Scissors,
		Paper:    Rock,
		Scissors: Paper,
	})
	if err != nil {
		panic(err)
	}
	return r
}

// NewRuleset validates the relation: every target is a known move, no move
// beats itself, and every pair of distinct moves has exactly one winner.
// With one defeat per move that only holds for a cycle of three.
func NewRuleset(beats map[Move]Move) (*Ruleset, error) {
	if len(beats) != 3 {
		return nil, fmt.Errorf("%w: exactly three moves required, got %d", ErrInvalidRuleset, len(beats))
	}

	moves := make([]Move, 0, len(beats))
	for m, target := range beats {
		if m == NoMove {
			return nil, fmt.Errorf("%w: empty move name", ErrInvalidRuleset)
		}
		if _, ok := beats[target]; !ok {
			return nil, fmt.Errorf("%w: %q beats unknown move %q", ErrInvalidRuleset, m, target)
		}
		if m == target {
			return nil, fmt.Errorf("%w: %q beats itself", ErrInvalidRuleset, m)
		}
		moves = append(moves, m)
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i] < moves[j] })

	for i, a := range moves {
		for _, b := range moves[i+1:] {
			ab, ba := beats[a] == b, beats[b] == a
			if ab == ba {
				return nil, fmt.Errorf("%w: no single winner between %q and %q", ErrInvalidRuleset, a, b)
			}
		}
	}

	copied := make(map[Move]Move, len(beats))
	for k, v := range beats {
		copied[k] = v
	}

	return &Ruleset{beats: copied, moves: moves}, nil
}

// Moves returns the valid moves in lexical order
func (r *Ruleset) Moves() []Move {
	out := make([]Move, len(r.moves))
	copy(out, r.moves)
	return out
}

func (r *Ruleset) Valid(m Move) bool {
	_, ok := r.beats[m]
	return ok
}

// Beats reports whether a defeats b
func (r *Ruleset) Beats(a, b Move) bool {
	target, ok := r.beats[a]
	return ok && target == b
}

// Resolve decides a round from the pending pair of slot 1 and slot 2
func (r *Ruleset) Resolve(pair [2]Move) (Outcome, error) {
	a, b := pair[0], pair[1]
	if a == NoMove || b == NoMove {
		return Outcome{}, ErrIncompletePair
	}
	if !r.Valid(a) {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownMove, a)
	}
	if !r.Valid(b) {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownMove, b)
	}

	out := Outcome{Choices: pair}
	switch {
	case a == b:
		out.Winner = 0
	case r.Beats(a, b):
		out.Winner = 1
	default:
		out.Winner = 2
	}
	return out, nil
}
