package progression

import (
	"sort"

	"quran-quiz-service/internal/domain"
)

// Tier is one level threshold in the progression ladder.
type Tier struct {
	Level          int    `json:"level"`
	XPRequired     int    `json:"xp_required"`
	Title          string `json:"title"`
	DiamondsReward int    `json:"diamonds_reward"`
	MaxQuestions   int    `json:"max_questions"`
}

// Settings is the progression configuration document.
type Settings struct {
	Rules domain.GameRules `json:"rules"`
	Tiers []Tier           `json:"levels"`
}

// Rules answers progression policy questions for the quiz engine. Immutable
// after construction.
type Rules struct {
	rules domain.GameRules
	tiers []Tier
}

// New builds Rules from settings. Tiers are normalized to ascending xp order.
func New(settings Settings) *Rules {
	tiers := append([]Tier(nil), settings.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].XPRequired < tiers[j].XPRequired })
	rules := settings.Rules
	if rules.XPPerCorrect == 0 {
		rules.XPPerCorrect = 10
	}
	if rules.XPBonusPerfect == 0 {
		rules.XPBonusPerfect = 50
	}
	if len(tiers) == 0 {
		tiers = defaultTiers()
	}
	return &Rules{rules: rules, tiers: tiers}
}

// Default returns the compiled-in progression ladder, used when no stored
// configuration is available.
func Default() *Rules {
	return New(Settings{
		Rules: domain.GameRules{XPPerCorrect: 10, XPBonusPerfect: 50},
		Tiers: defaultTiers(),
	})
}

func defaultTiers() []Tier {
	return []Tier{
		{Level: 1, XPRequired: 0, Title: "مبتدئ", DiamondsReward: 0, MaxQuestions: 10},
		{Level: 2, XPRequired: 300, Title: "مجتهد", DiamondsReward: 50, MaxQuestions: 10},
		{Level: 3, XPRequired: 900, Title: "متقن", DiamondsReward: 75, MaxQuestions: 15},
		{Level: 4, XPRequired: 2000, Title: "ماهر", DiamondsReward: 100, MaxQuestions: 15},
		{Level: 5, XPRequired: 4000, Title: "حافظ", DiamondsReward: 150, MaxQuestions: 20},
		{Level: 6, XPRequired: 7500, Title: "أستاذ", DiamondsReward: 250, MaxQuestions: 25},
	}
}

func (r *Rules) GameRules() domain.GameRules {
	return r.rules
}

// LevelInfo returns the highest tier whose threshold the xp total has reached.
func (r *Rules) LevelInfo(xp int) domain.LevelInfo {
	info := domain.LevelInfo{Level: 1}
	for _, t := range r.tiers {
		if xp >= t.XPRequired {
			info = domain.LevelInfo{Level: t.Level, Title: t.Title}
		}
	}
	return info
}

// CheckForLevelUp reports the tier reached when the xp change crossed one or
// more thresholds, carrying the reached tier's diamond reward. Nil when no
// threshold was crossed.
func (r *Rules) CheckForLevelUp(oldXP, newXP int) *domain.LevelUp {
	oldInfo := r.LevelInfo(oldXP)
	newInfo := r.LevelInfo(newXP)
	if newInfo.Level <= oldInfo.Level {
		return nil
	}
	up := &domain.LevelUp{Level: newInfo.Level, Title: newInfo.Title}
	for _, t := range r.tiers {
		if t.Level == newInfo.Level {
			up.Reward = t.DiamondsReward
			break
		}
	}
	return up
}

// MaxQuestionsForLevel caps the per-session question count for a level.
// Zero means no cap.
func (r *Rules) MaxQuestionsForLevel(level int) int {
	max := 0
	for _, t := range r.tiers {
		if t.Level <= level && t.MaxQuestions > max {
			max = t.MaxQuestions
		}
	}
	return max
}
