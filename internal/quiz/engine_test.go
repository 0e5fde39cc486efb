package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/infra/memory"
)

func testVerses() map[int][]domain.Verse {
	return map[int][]domain.Verse{
		1: {
			{Number: 1, Text: "بِسْمِ اللَّهِ الرَّحْمَنِ الرَّحِيمِ", NumberInSurah: 1, SurahNumber: 1, SurahName: "الفاتحة"},
			{Number: 2, Text: "الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ", NumberInSurah: 2, SurahNumber: 1, SurahName: "الفاتحة"},
		},
	}
}

func testEngine(t *testing.T, rules Rules, players *memory.PlayerStore, mastery *memory.MasteryStore) *Engine {
	t.Helper()
	catalog := testCatalog(
		domain.ArchetypeConfig{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true},
	)
	return NewEngine(Deps{
		Catalog:          NewCatalogProvider(catalog),
		Content:          memory.NewStaticPageSource(testVerses()),
		Players:          players,
		Results:          memory.NewResultStore(),
		Mastery:          mastery,
		Rules:            rules,
		DefaultQuestions: 10,
		DefaultReciter:   "ar.alafasy",
		Detach:           inlineDetach,
		Now:              fixedClock(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)),
		Seed:             func() int64 { return 7 },
	})
}

func TestLoadOrCreatePlayerSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	e := testEngine(t, stubRules{}, players, memory.NewMasteryStore())

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if player.Diamonds != 100 || player.XP != 0 {
		t.Fatalf("expected fresh player with 100 diamonds, got %+v", player)
	}

	saved, err := players.Load(ctx, "u1")
	if err != nil || saved.Username != "أحمد" {
		t.Fatalf("expected player persisted on first sight, got %+v err=%v", saved, err)
	}

	again, err := e.LoadOrCreatePlayer(ctx, "u1", "")
	if err != nil || again.Diamonds != 100 {
		t.Fatalf("expected existing player loaded, got %+v err=%v", again, err)
	}
}

func TestEngineFullRun(t *testing.T) {
	ctx := context.Background()
	players := memory.NewPlayerStore()
	mastery := memory.NewMasteryStore()
	e := testEngine(t, stubRules{}, players, mastery)

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	s, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, PageNumber: 1, QuestionsCount: 3}, player)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for q := s.Current(); q != nil; q = s.Current() {
		if _, err := s.Submit(q.CorrectOptionID); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if snap := s.Snapshot(); snap.State != StateComplete || snap.Score != 3 {
		t.Fatalf("expected perfect 3/3 run, got %+v", snap)
	}
	// 30 xp for answers plus the 50 perfect bonus.
	if player.XP != 80 {
		t.Fatalf("expected 80 xp, got %d", player.XP)
	}
	if player.Diamonds != 125 {
		t.Fatalf("expected 100 seed + 25 level-up diamonds, got %d", player.Diamonds)
	}
	if _, ok := mastery.Record("u1", 1); !ok {
		t.Fatal("expected mastery entry for page 1")
	}
}

func TestEngineDropsCompletedSession(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, stubRules{}, memory.NewPlayerStore(), memory.NewMasteryStore())

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	s, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 2}, player)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for q := s.Current(); q != nil; q = s.Current() {
		if _, err := s.Submit(q.CorrectOptionID); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if snap := s.Snapshot(); snap.State != StateComplete {
		t.Fatalf("expected completed session, got %+v", snap)
	}

	e.mu.Lock()
	_, stillTracked := e.active["u1"]
	e.mu.Unlock()
	if stillTracked {
		t.Fatal("completed session must be released from the active set")
	}

	// Completion of a stale session must not evict its replacement.
	if _, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 2}, player); err != nil {
		t.Fatalf("first session: %v", err)
	}
	second, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 2}, player)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	e.mu.Lock()
	tracked := e.active["u1"]
	e.mu.Unlock()
	if tracked != second {
		t.Fatal("replacement session must stay in the active set")
	}
}

func TestEngineClampsQuestionCount(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, stubRules{max: 2}, memory.NewPlayerStore(), memory.NewMasteryStore())

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	s, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 10}, player)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if snap := s.Snapshot(); snap.Total != 2 {
		t.Fatalf("expected plan clamped to 2 questions, got %d", snap.Total)
	}
}

func TestEngineContentFailure(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, stubRules{}, memory.NewPlayerStore(), memory.NewMasteryStore())

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	_, err = e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{404}}, player)
	if !errors.Is(err, domain.ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}
}

func TestEngineDiscardsReplacedSession(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, stubRules{}, memory.NewPlayerStore(), memory.NewMasteryStore())

	player, err := e.LoadOrCreatePlayer(ctx, "u1", "أحمد")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	first, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 2}, player)
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if err := first.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := e.NewSession(ctx, StartSettings{PlayerID: "u1", Pages: []int{1}, QuestionsCount: 2}, player); err != nil {
		t.Fatalf("second session: %v", err)
	}
	if _, err := first.Submit("o1"); !errors.Is(err, domain.ErrAnswerNotExpected) {
		t.Fatalf("expected replaced session to reject answers, got %v", err)
	}
}
