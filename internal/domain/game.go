package domain

import "time"

// MatchResult - result of a match from one player's side
type MatchResult string

const (
	MatchResultWin  MatchResult = "win"
	MatchResultLose MatchResult = "lose"
	MatchResultDraw MatchResult = "draw"
)

// Match - one resolved round of a room
type Match struct {
	ID         int64     `db:"id" json:"id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	PlayerAID  int64     `db:"player_a_id" json:"player_a_id"`
	PlayerBID  int64     `db:"player_b_id" json:"player_b_id"`
	ChoiceA    string    `db:"choice_a" json:"choice_a"`
	ChoiceB    string    `db:"choice_b" json:"choice_b"`
	WinnerSlot int       `db:"winner_slot" json:"winner_slot"` // 0 draw, 1 player A, 2 player B
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ResultFor returns the result of the match seen by userID
func (m *Match) ResultFor(userID int64) MatchResult {
	if m.WinnerSlot == 0 {
		return MatchResultDraw
	}

	slot := 2
	if userID == m.PlayerAID {
		slot = 1
	}
	if slot == m.WinnerSlot {
		return MatchResultWin
	}
	return MatchResultLose
}

// MatchView - a match from one player's side, for the history endpoint
type MatchView struct {
	ID          int64       `json:"id"`
	RoomID      string      `json:"room_id"`
	OpponentID  int64       `json:"opponent_id"`
	MyChoice    string      `json:"my_choice"`
	EnemyChoice string      `json:"enemy_choice"`
	Result      MatchResult `json:"result"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ViewFor converts the match into userID's perspective
func (m *Match) ViewFor(userID int64) MatchView {
	v := MatchView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Result:    m.ResultFor(userID),
		CreatedAt: m.CreatedAt,
	}

	if userID == m.PlayerAID {
		v.OpponentID, v.MyChoice, v.EnemyChoice = m.PlayerBID, m.ChoiceA, m.ChoiceB
	} else {
		v.OpponentID, v.MyChoice, v.EnemyChoice = m.PlayerAID, m.ChoiceB, m.ChoiceA
	}
	return v
}

// MatchStats - totals over all recorded matches
type MatchStats struct {
	Total       int64 `json:"total"`
	Draws       int64 `json:"draws"`
	Player1Wins int64 `json:"player_1_wins"`
	Player2Wins int64 `json:"player_2_wins"`
}
