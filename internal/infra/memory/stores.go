package memory

import (
	"context"
	"sort"
	"sync"

	"quran-quiz-service/internal/domain"
)

// PlayerStore is an in-memory quiz.PlayerStore (tests, demo mode).
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.PlayerRecord
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]domain.PlayerRecord)}
}

func (s *PlayerStore) Load(_ context.Context, id string) (*domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	copied := record
	return &copied, nil
}

func (s *PlayerStore) Save(_ context.Context, player *domain.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = *player
	return nil
}

// ListTop returns the highest-xp players for the leaderboard.
func (s *PlayerStore) ListTop(_ context.Context, limit int) ([]domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlayerRecord, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].Username < out[j].Username
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ResultStore is an in-memory quiz.ResultStore.
type ResultStore struct {
	mu      sync.Mutex
	results []domain.ResultRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Save(_ context.Context, result domain.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of everything saved so far.
func (s *ResultStore) Results() []domain.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ResultRecord, len(s.results))
	copy(out, s.results)
	return out
}

// MasteryRecord is one per-page proficiency entry.
type MasteryRecord struct {
	UserID              string
	Page                int
	BestDurationSeconds int
	PerfectCount        int
}

// MasteryStore is an in-memory quiz.MasteryTracker.
type MasteryStore struct {
	mu      sync.Mutex
	records map[string]map[int]*MasteryRecord
}

func NewMasteryStore() *MasteryStore {
	return &MasteryStore{records: make(map[string]map[int]*MasteryRecord)}
}

func (s *MasteryStore) RecordPerfectRun(_ context.Context, userID string, page int, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, ok := s.records[userID]
	if !ok {
		pages = make(map[int]*MasteryRecord)
		s.records[userID] = pages
	}
	rec, ok := pages[page]
	if !ok {
		pages[page] = &MasteryRecord{UserID: userID, Page: page, BestDurationSeconds: durationSeconds, PerfectCount: 1}
		return nil
	}
	rec.PerfectCount++
	if durationSeconds < rec.BestDurationSeconds {
		rec.BestDurationSeconds = durationSeconds
	}
	return nil
}

// Record returns the stored mastery entry, if any.
func (s *MasteryStore) Record(userID string, page int) (MasteryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pages, ok := s.records[userID]; ok {
		if rec, ok := pages[page]; ok {
			return *rec, true
		}
	}
	return MasteryRecord{}, false
}

// QuestProgressStore is an in-memory quests.ProgressStore.
type QuestProgressStore struct {
	mu       sync.Mutex
	progress map[string]map[string]domain.PlayerQuest
}

func NewQuestProgressStore() *QuestProgressStore {
	return &QuestProgressStore{progress: make(map[string]map[string]domain.PlayerQuest)}
}

func (s *QuestProgressStore) LoadProgress(_ context.Context, userID string) ([]domain.PlayerQuest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PlayerQuest, 0, len(s.progress[userID]))
	for _, pq := range s.progress[userID] {
		out = append(out, pq)
	}
	return out, nil
}

func (s *QuestProgressStore) SaveProgress(_ context.Context, userID string, updates []domain.PlayerQuest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.progress[userID]
	if !ok {
		byID = make(map[string]domain.PlayerQuest)
		s.progress[userID] = byID
	}
	for _, pq := range updates {
		byID[pq.QuestID] = pq
	}
	return nil
}

// EventStore is an in-memory live event source.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]domain.LiveEvent
}

func NewEventStore(events []domain.LiveEvent) *EventStore {
	byID := make(map[string]domain.LiveEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return &EventStore{events: byID}
}

func (s *EventStore) ListActive(_ context.Context) ([]domain.LiveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LiveEvent, 0, len(s.events))
	for _, e := range s.events {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *EventStore) Get(_ context.Context, id string) (domain.LiveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.events[id]; ok {
		return e, nil
	}
	return domain.LiveEvent{}, domain.ErrEventNotFound
}
