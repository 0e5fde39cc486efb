package quiz

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
)

// PlayerStore persists the player aggregate.
type PlayerStore interface {
	Load(ctx context.Context, id string) (*domain.PlayerRecord, error)
	Save(ctx context.Context, player *domain.PlayerRecord) error
}

// ResultStore archives finished session records.
type ResultStore interface {
	Save(ctx context.Context, result domain.ResultRecord) error
}

// MasteryTracker records perfect single-page runs.
type MasteryTracker interface {
	RecordPerfectRun(ctx context.Context, userID string, page int, durationSeconds int) error
}

// Notifier receives quiz lifecycle events. Implementations (quests,
// achievements) decide their own state changes; the reconciler does not
// inspect their results.
type Notifier interface {
	Notify(ctx context.Context, event domain.QuizEvent)
}

// Rules is the external progression policy consulted by the engine and the
// reconciler.
type Rules interface {
	GameRules() domain.GameRules
	LevelInfo(xp int) domain.LevelInfo
	CheckForLevelUp(oldXP, newXP int) *domain.LevelUp
	MaxQuestionsForLevel(level int) int
}

// ContentSource fetches the ordered verse units of one page.
type ContentSource interface {
	Page(ctx context.Context, page int) ([]domain.Verse, error)
}

// Detach runs fn without the caller waiting on it. Production uses a plain
// goroutine; tests substitute an inline runner to observe the saves.
type Detach func(fn func())

// GoDetach is the production Detach.
func GoDetach(fn func()) { go fn() }

// Outcome is everything the presentation layer needs after reconciliation:
// the archived result, any level-up, and the published player aggregate.
type Outcome struct {
	Result  domain.ResultRecord
	LevelUp *domain.LevelUp
	Player  *domain.PlayerRecord
}

// Reconciler converts a terminal session snapshot into permanent player-state
// deltas and triggers persistence. It runs once per completed session.
type Reconciler struct {
	players   PlayerStore
	results   ResultStore
	mastery   MasteryTracker
	notifiers []Notifier
	rules     Rules
	detach    Detach
	log       *zap.Logger
	now       func() time.Time
}

func NewReconciler(players PlayerStore, results ResultStore, mastery MasteryTracker, notifiers []Notifier, rules Rules, detach Detach, log *zap.Logger, now func() time.Time) *Reconciler {
	if detach == nil {
		detach = GoDetach
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		players:   players,
		results:   results,
		mastery:   mastery,
		notifiers: notifiers,
		rules:     rules,
		detach:    detach,
		log:       log,
		now:       now,
	}
}

// Reconcile applies the session's accumulated outcome to the player aggregate,
// notifies quest/achievement collaborators and fires the two persistence calls
// without blocking on them. Persistence failures are logged, never retried,
// and never roll back the in-memory deltas already applied.
func (r *Reconciler) Reconcile(snap SessionSnapshot, player *domain.PlayerRecord) *Outcome {
	ctx := context.Background()
	end := r.now()
	duration := int(math.Round(end.Sub(snap.StartedAt).Seconds()))
	perfect := len(snap.ErrorLog) == 0
	rules := r.rules.GameRules()

	xpEarned := snap.XPEarned
	player.TotalQuizzesCompleted++
	player.TotalCorrectAnswers += snap.Score
	player.TotalWrongAnswers += len(snap.ErrorLog)

	if perfect {
		xpEarned += rules.XPBonusPerfect
		player.TotalPerfectQuizzes++
		if snap.Meta.LiveEvent != nil {
			player.Diamonds += snap.Meta.LiveEvent.BonusDiamonds
		}
		// Mastery only applies to single-page tests.
		if snap.Meta.PageNumber > 0 && r.mastery != nil {
			if err := r.mastery.RecordPerfectRun(ctx, player.ID, snap.Meta.PageNumber, duration); err != nil {
				r.log.Warn("mastery update failed",
					zap.String("player", player.ID),
					zap.Int("page", snap.Meta.PageNumber),
					zap.Error(err))
			}
		}
	}

	oldXP := player.XP
	player.XP += xpEarned
	levelUp := r.rules.CheckForLevelUp(oldXP, player.XP)
	if levelUp != nil {
		player.Diamonds += levelUp.Reward
	}

	event := domain.QuizEvent{
		Type:       domain.EventQuizCompleted,
		Score:      snap.Score,
		Total:      snap.Total,
		IsPerfect:  perfect,
		PageNumber: snap.Meta.PageNumber,
		Player:     player,
	}
	for _, n := range r.notifiers {
		n.Notify(ctx, event)
		if perfect {
			perfectEvent := event
			perfectEvent.Type = domain.EventPerfectQuiz
			n.Notify(ctx, perfectEvent)
		}
	}

	result := domain.ResultRecord{
		UserID:          player.ID,
		PageNumber:      snap.Meta.PageNumber,
		Score:           snap.Score,
		TotalQuestions:  snap.Total,
		XPEarned:        xpEarned,
		Errors:          snap.ErrorLog,
		IsPerfect:       perfect,
		DurationSeconds: duration,
		CreatedAt:       end,
	}
	if snap.Meta.LiveEvent != nil {
		result.LiveEventID = snap.Meta.LiveEvent.ID
	}

	// Don't block the result screen on persistence. A save started always runs
	// to completion or failure on its own.
	saved := *player
	saved.Inventory = append([]string(nil), player.Inventory...)
	saved.Achievements = append([]string(nil), player.Achievements...)
	r.detach(func() {
		if err := r.players.Save(context.Background(), &saved); err != nil {
			r.log.Warn("player save failed", zap.String("player", saved.ID), zap.Error(err))
		}
	})
	r.detach(func() {
		if err := r.results.Save(context.Background(), result); err != nil {
			r.log.Warn("result save failed", zap.String("player", result.UserID), zap.Error(err))
		}
	})

	return &Outcome{Result: result, LevelUp: levelUp, Player: player}
}
