package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quran-quiz-service/internal/domain"
)

func TestPlayerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	player := domain.NewPlayerRecord("u1", "أحمد", time.Now())
	if err := store.Save(ctx, player); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.XP = 999
	reloaded, _ := store.Load(ctx, "u1")
	if reloaded.XP != 0 {
		t.Fatal("store handed out a shared record")
	}
}

func TestPlayerStoreListTop(t *testing.T) {
	ctx := context.Background()
	store := NewPlayerStore()
	for _, p := range []struct {
		id, name string
		xp       int
	}{
		{"u1", "أحمد", 300},
		{"u2", "سارة", 900},
		{"u3", "خالد", 300},
	} {
		record := domain.NewPlayerRecord(p.id, p.name, time.Now())
		record.XP = p.xp
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	top, err := store.ListTop(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(top) != 2 || top[0].ID != "u2" {
		t.Fatalf("expected سارة leading a list of 2, got %+v", top)
	}
	// Ties break on username so the order is stable.
	if top[1].ID != "u1" {
		t.Fatalf("expected أحمد second on tie, got %+v", top[1])
	}
}

func TestMasteryStoreKeepsBestDuration(t *testing.T) {
	ctx := context.Background()
	store := NewMasteryStore()

	if err := store.RecordPerfectRun(ctx, "u1", 5, 120); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordPerfectRun(ctx, "u1", 5, 90); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordPerfectRun(ctx, "u1", 5, 200); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec, ok := store.Record("u1", 5)
	if !ok {
		t.Fatal("expected mastery record")
	}
	if rec.BestDurationSeconds != 90 || rec.PerfectCount != 3 {
		t.Fatalf("expected best 90s over 3 runs, got %+v", rec)
	}
}

func TestQuestProgressStoreMergesUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewQuestProgressStore()

	if err := store.SaveProgress(ctx, "u1", []domain.PlayerQuest{{QuestID: "daily_three", Progress: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveProgress(ctx, "u1", []domain.PlayerQuest{
		{QuestID: "daily_three", Progress: 2},
		{QuestID: "daily_perfect", Progress: 1, Completed: true},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	progress, err := store.LoadProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 quests, got %d", len(progress))
	}
	for _, pq := range progress {
		if pq.QuestID == "daily_three" && pq.Progress != 2 {
			t.Fatalf("expected merged progress 2, got %+v", pq)
		}
	}
}

func TestEventStore(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore([]domain.LiveEvent{
		{ID: "b_event", Title: "ب", IsActive: true},
		{ID: "a_event", Title: "أ", IsActive: true},
		{ID: "old_event", Title: "قديم", IsActive: false},
	})

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 || active[0].ID != "a_event" {
		t.Fatalf("expected 2 active events sorted by id, got %+v", active)
	}

	if _, err := store.Get(ctx, "old_event"); err != nil {
		t.Fatalf("get inactive: %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
