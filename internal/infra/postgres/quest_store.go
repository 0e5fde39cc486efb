package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quran-quiz-service/internal/domain"
)

// QuestProgressStore persists per-player quest progress.
type QuestProgressStore struct {
	pool *pgxpool.Pool
}

func NewQuestProgressStore(pool *pgxpool.Pool) *QuestProgressStore {
	return &QuestProgressStore{pool: pool}
}

func (s *QuestProgressStore) LoadProgress(ctx context.Context, userID string) ([]domain.PlayerQuest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT quest_id, progress, is_completed FROM player_quests WHERE user_id=$1`, userID)
	if err != nil {
		return nil, fmt.Errorf("load quest progress: %w", err)
	}
	defer rows.Close()

	var out []domain.PlayerQuest
	for rows.Next() {
		var pq domain.PlayerQuest
		if err := rows.Scan(&pq.QuestID, &pq.Progress, &pq.Completed); err != nil {
			return nil, fmt.Errorf("scan quest progress: %w", err)
		}
		out = append(out, pq)
	}
	return out, rows.Err()
}

func (s *QuestProgressStore) SaveProgress(ctx context.Context, userID string, updates []domain.PlayerQuest) error {
	for _, pq := range updates {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO player_quests (user_id, quest_id, progress, is_completed)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, quest_id) DO UPDATE SET
			   progress = EXCLUDED.progress,
			   is_completed = EXCLUDED.is_completed`,
			userID, pq.QuestID, pq.Progress, pq.Completed)
		if err != nil {
			return fmt.Errorf("save quest progress: %w", err)
		}
	}
	return nil
}
