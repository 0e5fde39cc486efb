package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/progression"
)

// ConfigStore loads game configuration documents (question archetypes,
// progression settings, quest definitions, live events).
type ConfigStore struct {
	pool *pgxpool.Pool
}

func NewConfigStore(pool *pgxpool.Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// QuestionConfigs returns every stored archetype entry; the catalog builder
// filters out inactive and unresolvable ones.
func (s *ConfigStore) QuestionConfigs(ctx context.Context) ([]domain.ArchetypeConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM question_config ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load question config: %w", err)
	}
	defer rows.Close()

	var out []domain.ArchetypeConfig
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question config: %w", err)
		}
		var entry domain.ArchetypeConfig
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal question config: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ProgressionSettings returns the single stored progression document, or
// ErrNoRows mapped to ok=false so callers can fall back to defaults.
func (s *ConfigStore) ProgressionSettings(ctx context.Context) (progression.Settings, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM progression_config WHERE id=1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return progression.Settings{}, false, nil
	}
	if err != nil {
		return progression.Settings{}, false, fmt.Errorf("load progression config: %w", err)
	}
	var settings progression.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return progression.Settings{}, false, fmt.Errorf("unmarshal progression config: %w", err)
	}
	return settings, true, nil
}

// QuestConfigs returns the stored quest definitions.
func (s *ConfigStore) QuestConfigs(ctx context.Context) ([]domain.QuestConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quest_config ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load quest config: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestConfig
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quest config: %w", err)
		}
		var cfg domain.QuestConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal quest config: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// StoreItems returns the stored catalog of purchasable items.
func (s *ConfigStore) StoreItems(ctx context.Context) ([]domain.StoreItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM store_config ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	defer rows.Close()

	var out []domain.StoreItem
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan store config: %w", err)
		}
		var item domain.StoreItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal store config: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListActive returns the currently running live events.
func (s *ConfigStore) ListActive(ctx context.Context) ([]domain.LiveEvent, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM live_events WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load live events: %w", err)
	}
	defer rows.Close()

	var out []domain.LiveEvent
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan live event: %w", err)
		}
		var event domain.LiveEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("unmarshal live event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Get returns one live event by id.
func (s *ConfigStore) Get(ctx context.Context, id string) (domain.LiveEvent, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM live_events WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LiveEvent{}, domain.ErrEventNotFound
	}
	if err != nil {
		return domain.LiveEvent{}, fmt.Errorf("load live event: %w", err)
	}
	var event domain.LiveEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return domain.LiveEvent{}, fmt.Errorf("unmarshal live event: %w", err)
	}
	return event, nil
}
