package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// MasteryStore records per-page proficiency in Postgres.
type MasteryStore struct {
	pool *pgxpool.Pool
}

func NewMasteryStore(pool *pgxpool.Pool) *MasteryStore {
	return &MasteryStore{pool: pool}
}

// RecordPerfectRun upserts the player's mastery row for a page, keeping the
// best (lowest) duration and counting perfect runs.
func (s *MasteryStore) RecordPerfectRun(ctx context.Context, userID string, page int, durationSeconds int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_mastery (user_id, page, best_duration_seconds, perfect_count, updated_at)
		 VALUES ($1, $2, $3, 1, now())
		 ON CONFLICT (user_id, page) DO UPDATE SET
		   best_duration_seconds = LEAST(page_mastery.best_duration_seconds, EXCLUDED.best_duration_seconds),
		   perfect_count = page_mastery.perfect_count + 1,
		   updated_at = now()`,
		userID, page, durationSeconds)
	if err != nil {
		return fmt.Errorf("record mastery: %w", err)
	}
	return nil
}
