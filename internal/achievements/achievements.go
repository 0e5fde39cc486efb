package achievements

import (
	"context"

	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
)

// Stat names a player aggregate an achievement threshold applies to.
type Stat string

const (
	StatQuizzesCompleted Stat = "total_quizzes_completed"
	StatPerfectQuizzes   Stat = "total_perfect_quizzes"
	StatCorrectAnswers   Stat = "total_correct_answers"
	StatXP               Stat = "xp"
)

// Definition is one achievement rule: unlocked once the stat reaches the
// threshold.
type Definition struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Stat      Stat   `json:"stat"`
	Threshold int    `json:"threshold"`
}

// Engine evaluates achievement rules against the player aggregate carried by
// quiz events and records new unlocks on it. It implements quiz.Notifier.
type Engine struct {
	defs []Definition
	log  *zap.Logger
}

func NewEngine(defs []Definition, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{defs: defs, log: log}
}

// Notify checks every definition against the event's player and appends newly
// unlocked achievement ids. Perfect-quiz events are already reflected in the
// aggregate counters, so only completion events are evaluated.
func (e *Engine) Notify(_ context.Context, ev domain.QuizEvent) {
	if ev.Player == nil || ev.Type != domain.EventQuizCompleted {
		return
	}
	for _, def := range e.defs {
		if ev.Player.HasAchievement(def.ID) {
			continue
		}
		if statValue(ev.Player, def.Stat) < def.Threshold {
			continue
		}
		ev.Player.Achievements = append(ev.Player.Achievements, def.ID)
		e.log.Info("achievement unlocked", zap.String("player", ev.Player.ID), zap.String("achievement", def.ID))
	}
}

func statValue(p *domain.PlayerRecord, stat Stat) int {
	switch stat {
	case StatQuizzesCompleted:
		return p.TotalQuizzesCompleted
	case StatPerfectQuizzes:
		return p.TotalPerfectQuizzes
	case StatCorrectAnswers:
		return p.TotalCorrectAnswers
	case StatXP:
		return p.XP
	}
	return 0
}

// Defaults is the built-in achievement list.
func Defaults() []Definition {
	return []Definition{
		{ID: "first_quiz", Title: "الخطوة الأولى", Stat: StatQuizzesCompleted, Threshold: 1},
		{ID: "ten_quizzes", Title: "مثابر", Stat: StatQuizzesCompleted, Threshold: 10},
		{ID: "first_perfect", Title: "بلا أخطاء", Stat: StatPerfectQuizzes, Threshold: 1},
		{ID: "five_perfect", Title: "متقن", Stat: StatPerfectQuizzes, Threshold: 5},
		{ID: "hundred_correct", Title: "مئة إجابة", Stat: StatCorrectAnswers, Threshold: 100},
	}
}
