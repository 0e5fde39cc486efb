package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quran-quiz-service/internal/domain"
)

// PlayerStore persists player aggregates as JSONB documents.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) Load(ctx context.Context, id string) (*domain.PlayerRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM players WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	var player domain.PlayerRecord
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("unmarshal player: %w", err)
	}
	return &player, nil
}

func (s *PlayerStore) Save(ctx context.Context, player *domain.PlayerRecord) error {
	raw, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("marshal player: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO players (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		player.ID, raw)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

// ListTop returns the highest-xp players for the leaderboard.
func (s *PlayerStore) ListTop(ctx context.Context, limit int) ([]domain.PlayerRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM players ORDER BY (data->>'xp')::int DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []domain.PlayerRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		var player domain.PlayerRecord
		if err := json.Unmarshal(raw, &player); err != nil {
			return nil, fmt.Errorf("unmarshal player: %w", err)
		}
		out = append(out, player)
	}
	return out, rows.Err()
}
