package progression

import (
	"testing"

	"quran-quiz-service/internal/domain"
)

func TestLevelInfoPicksReachedTier(t *testing.T) {
	r := Default()

	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{299, 1},
		{300, 2},
		{899, 2},
		{900, 3},
		{7500, 6},
		{100000, 6},
	}
	for _, c := range cases {
		if got := r.LevelInfo(c.xp); got.Level != c.level {
			t.Fatalf("xp %d: expected level %d, got %d", c.xp, c.level, got.Level)
		}
	}
}

func TestCheckForLevelUp(t *testing.T) {
	r := Default()

	if up := r.CheckForLevelUp(100, 250); up != nil {
		t.Fatalf("expected no level up below threshold, got %+v", up)
	}

	up := r.CheckForLevelUp(250, 340)
	if up == nil || up.Level != 2 || up.Reward != 50 {
		t.Fatalf("expected level 2 with 50 diamonds, got %+v", up)
	}

	// A large xp jump skips intermediate tiers and rewards the reached one.
	up = r.CheckForLevelUp(0, 1000)
	if up == nil || up.Level != 3 || up.Reward != 75 {
		t.Fatalf("expected level 3 with 75 diamonds, got %+v", up)
	}
}

func TestMaxQuestionsForLevel(t *testing.T) {
	r := Default()

	if got := r.MaxQuestionsForLevel(1); got != 10 {
		t.Fatalf("expected cap 10 at level 1, got %d", got)
	}
	if got := r.MaxQuestionsForLevel(4); got != 15 {
		t.Fatalf("expected cap 15 at level 4, got %d", got)
	}
	if got := r.MaxQuestionsForLevel(6); got != 25 {
		t.Fatalf("expected cap 25 at level 6, got %d", got)
	}
}

func TestNewNormalizesSettings(t *testing.T) {
	r := New(Settings{
		Tiers: []Tier{
			{Level: 2, XPRequired: 500, Title: "ب", DiamondsReward: 10},
			{Level: 1, XPRequired: 0, Title: "أ"},
		},
	})

	rules := r.GameRules()
	if rules.XPPerCorrect != 10 || rules.XPBonusPerfect != 50 {
		t.Fatalf("expected default reward values, got %+v", rules)
	}
	if got := r.LevelInfo(500); got.Level != 2 || got.Title != "ب" {
		t.Fatalf("tiers not sorted by threshold: %+v", got)
	}

	fallback := New(Settings{})
	if got := fallback.LevelInfo(300); got.Level != 2 {
		t.Fatalf("expected compiled-in ladder fallback, got %+v", got)
	}
	if fallback.MaxQuestionsForLevel(1) != 10 {
		t.Fatal("fallback ladder missing question caps")
	}
}
