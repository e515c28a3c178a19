package game

import "errors"

// Move is one choice of the configured ruleset
type Move string

// NoMove marks a slot that has not submitted this round
const NoMove Move = ""

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"
)

// Result is the room-wide name of a resolved round
type Result string

const (
	ResultDraw        Result = "draw"
	ResultPlayer1Wins Result = "player-1-wins"
	ResultPlayer2Wins Result = "player-2-wins"
)

var (
	ErrUnknownMove    = errors.New("unknown move")
	ErrIncompletePair = errors.New("both moves are required")
	ErrInvalidRuleset = errors.New("invalid ruleset")
)

// Outcome of one round. Winner is the winning slot (1 or 2), 0 on a draw.
// Choices[0] belongs to slot 1, Choices[1] to slot 2.
type Outcome struct {
	Winner  int
	Choices [2]Move
}

func (o Outcome) Draw() bool {
	return o.Winner == 0
}

func (o Outcome) Result() Result {
	switch o.Winner {
	case 1:
		return ResultPlayer1Wins
	case 2:
		return ResultPlayer2Wins
	default:
		return ResultDraw
	}
}

// Own returns the choice of the given slot and the choice of its opponent
func (o Outcome) Own(slot int) (mine, enemy Move) {
	if slot == 2 {
		return o.Choices[1], o.Choices[0]
	}
	return o.Choices[0], o.Choices[1]
}
