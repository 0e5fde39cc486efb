package quests

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/quiz"
)

// ProgressStore persists per-player quest progress.
type ProgressStore interface {
	LoadProgress(ctx context.Context, userID string) ([]domain.PlayerQuest, error)
	SaveProgress(ctx context.Context, userID string, updates []domain.PlayerQuest) error
}

// Status pairs a quest definition with the player's progress against it.
type Status struct {
	Config   domain.QuestConfig `json:"config"`
	Progress int                `json:"progress"`
	Claimed  bool               `json:"is_completed"`
}

// Tracker advances quest progress on quiz lifecycle events and hands out
// rewards on claim. It implements quiz.Notifier; progress writes are detached
// so event handling never blocks session completion.
type Tracker struct {
	mu       sync.Mutex
	configs  map[string]domain.QuestConfig
	order    []string
	progress map[string]map[string]*domain.PlayerQuest
	store    ProgressStore
	detach   quiz.Detach
	log      *zap.Logger
}

func NewTracker(configs []domain.QuestConfig, store ProgressStore, detach quiz.Detach, log *zap.Logger) *Tracker {
	if detach == nil {
		detach = quiz.GoDetach
	}
	if log == nil {
		log = zap.NewNop()
	}
	byID := make(map[string]domain.QuestConfig, len(configs))
	order := make([]string, 0, len(configs))
	for _, c := range configs {
		byID[c.ID] = c
		order = append(order, c.ID)
	}
	return &Tracker{
		configs:  byID,
		order:    order,
		progress: make(map[string]map[string]*domain.PlayerQuest),
		store:    store,
		detach:   detach,
		log:      log,
	}
}

// ActiveFor returns the player's quests in definition order, loading stored
// progress on first access.
func (t *Tracker) ActiveFor(ctx context.Context, userID string) ([]Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(t.order))
	for _, id := range t.order {
		pq := t.progress[userID][id]
		out = append(out, Status{Config: t.configs[id], Progress: pq.Progress, Claimed: pq.Completed})
	}
	return out, nil
}

// Notify advances every unclaimed quest whose type matches the event, capped
// at its target value.
func (t *Tracker) Notify(ctx context.Context, ev domain.QuizEvent) {
	if ev.Player == nil {
		return
	}
	userID := ev.Player.ID

	t.mu.Lock()
	if err := t.ensureLoadedLocked(ctx, userID); err != nil {
		t.mu.Unlock()
		t.log.Warn("quest progress load failed", zap.String("player", userID), zap.Error(err))
		return
	}
	var updates []domain.PlayerQuest
	for _, id := range t.order {
		cfg := t.configs[id]
		pq := t.progress[userID][id]
		if pq.Completed || cfg.Type != ev.Type || pq.Progress >= cfg.TargetValue {
			continue
		}
		pq.Progress++
		updates = append(updates, *pq)
	}
	t.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	t.detach(func() {
		if err := t.store.SaveProgress(context.Background(), userID, updates); err != nil {
			t.log.Warn("quest progress save failed", zap.String("player", userID), zap.Error(err))
		}
	})
}

// Claim marks a finished quest claimed and applies its rewards to the player
// aggregate. Claiming twice, or before the target is reached, fails.
func (t *Tracker) Claim(ctx context.Context, player *domain.PlayerRecord, questID string) (domain.QuestConfig, error) {
	t.mu.Lock()
	cfg, ok := t.configs[questID]
	if !ok {
		t.mu.Unlock()
		return domain.QuestConfig{}, domain.ErrQuestNotFound
	}
	if err := t.ensureLoadedLocked(ctx, player.ID); err != nil {
		t.mu.Unlock()
		return domain.QuestConfig{}, err
	}
	pq := t.progress[player.ID][questID]
	if pq.Completed || pq.Progress < cfg.TargetValue {
		t.mu.Unlock()
		return domain.QuestConfig{}, domain.ErrQuestNotClaimable
	}
	pq.Completed = true
	update := *pq
	t.mu.Unlock()

	player.XP += cfg.XPReward
	player.Diamonds += cfg.DiamondsReward

	t.detach(func() {
		if err := t.store.SaveProgress(context.Background(), player.ID, []domain.PlayerQuest{update}); err != nil {
			t.log.Warn("quest claim save failed", zap.String("player", player.ID), zap.Error(err))
		}
	})
	return cfg, nil
}

func (t *Tracker) ensureLoadedLocked(ctx context.Context, userID string) error {
	if _, ok := t.progress[userID]; ok {
		return nil
	}
	stored, err := t.store.LoadProgress(ctx, userID)
	if err != nil {
		return err
	}
	byID := make(map[string]*domain.PlayerQuest, len(t.configs))
	for _, pq := range stored {
		if _, known := t.configs[pq.QuestID]; !known {
			continue
		}
		copied := pq
		byID[pq.QuestID] = &copied
	}
	for _, id := range t.order {
		if _, ok := byID[id]; !ok {
			byID[id] = &domain.PlayerQuest{QuestID: id}
		}
	}
	t.progress[userID] = byID
	return nil
}

// DefaultConfigs is the built-in daily quest set used when no stored
// configuration is available.
func DefaultConfigs() []domain.QuestConfig {
	return []domain.QuestConfig{
		{ID: "daily_three", Title: "ثلاثة اختبارات", Description: "أكمل ثلاثة اختبارات اليوم", Type: domain.EventQuizCompleted, TargetValue: 3, XPReward: 60, DiamondsReward: 15},
		{ID: "daily_perfect", Title: "اختبار متقن", Description: "أكمل اختبارًا دون أي خطأ", Type: domain.EventPerfectQuiz, TargetValue: 1, XPReward: 100, DiamondsReward: 25},
	}
}
