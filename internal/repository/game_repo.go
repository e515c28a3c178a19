package repository

import (
	"context"

	"rps_webapp/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Record stores a resolved round and fills in its id and created_at
func (r *MatchRepository) Record(ctx context.Context, m *domain.Match) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO matches (room_id, player_a_id, player_b_id, choice_a, choice_b, winner_slot)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		m.RoomID,
		m.PlayerAID,
		m.PlayerBID,
		m.ChoiceA,
		m.ChoiceB,
		m.WinnerSlot,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetByUser returns the latest matches the user played in, newest first
func (r *MatchRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, player_a_id, player_b_id, choice_a, choice_b, winner_slot, created_at
		 FROM matches
		 WHERE player_a_id = $1 OR player_b_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Match
	for rows.Next() {
		m := &domain.Match{}
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.PlayerAID,
			&m.PlayerBID,
			&m.ChoiceA,
			&m.ChoiceB,
			&m.WinnerSlot,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		res = append(res, m)
	}

	return res, rows.Err()
}

// Stats returns totals by outcome
func (r *MatchRepository) Stats(ctx context.Context) (domain.MatchStats, error) {
	var s domain.MatchStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE winner_slot = 0),
		        COUNT(*) FILTER (WHERE winner_slot = 1),
		        COUNT(*) FILTER (WHERE winner_slot = 2)
		 FROM matches`,
	).Scan(&s.Total, &s.Draws, &s.Player1Wins, &s.Player2Wins)
	return s, err
}
