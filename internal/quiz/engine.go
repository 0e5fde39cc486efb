package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
)

// StartSettings describe one requested test.
type StartSettings struct {
	PlayerID       string
	Username       string
	Pages          []int
	PageNumber     int // set only for single-page tests (mastery eligibility)
	ReciterID      string
	QuestionsCount int
	LiveEvent      *domain.LiveEvent
	Quest          *domain.QuestConfig
}

// Deps wires the engine's collaborators. Zero-value optional fields get
// production defaults.
type Deps struct {
	Catalog   *CatalogProvider
	Content   ContentSource
	Players   PlayerStore
	Results   ResultStore
	Mastery   MasteryTracker
	Notifiers []Notifier
	Rules     Rules
	Logger    *zap.Logger

	Pace             time.Duration
	DefaultQuestions int
	DefaultReciter   string
	Detach           Detach
	Now              func() time.Time
	Seed             func() int64
}

// Engine assembles sessions: it owns planning and wiring, while each Session
// owns its own state. At most one session is active per player; starting a new
// one discards the previous.
type Engine struct {
	catalog        *CatalogProvider
	content        ContentSource
	players        PlayerStore
	rules          Rules
	reconciler     *Reconciler
	log            *zap.Logger
	pace           time.Duration
	defaultCount   int
	defaultReciter string
	now            func() time.Time
	seed           func() int64

	mu     sync.Mutex
	active map[string]*Session
}

func NewEngine(deps Deps) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Seed == nil {
		deps.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DefaultQuestions <= 0 {
		deps.DefaultQuestions = 10
	}
	rec := NewReconciler(deps.Players, deps.Results, deps.Mastery, deps.Notifiers, deps.Rules, deps.Detach, deps.Logger, deps.Now)
	return &Engine{
		catalog:        deps.Catalog,
		content:        deps.Content,
		players:        deps.Players,
		rules:          deps.Rules,
		reconciler:     rec,
		log:            deps.Logger,
		pace:           deps.Pace,
		defaultCount:   deps.DefaultQuestions,
		defaultReciter: deps.DefaultReciter,
		now:            deps.Now,
		seed:           deps.Seed,
	}
}

// LoadOrCreatePlayer fetches the player aggregate, seeding a default record
// for first-time players.
func (e *Engine) LoadOrCreatePlayer(ctx context.Context, id, username string) (*domain.PlayerRecord, error) {
	player, err := e.players.Load(ctx, id)
	switch {
	case err == nil:
		if username != "" {
			player.Username = username
		}
		return player, nil
	case errors.Is(err, domain.ErrPlayerNotFound):
		player = domain.NewPlayerRecord(id, username, e.now())
		if err := e.players.Save(ctx, player); err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		return player, nil
	default:
		return nil, fmt.Errorf("load player: %w", err)
	}
}

// NewSession fetches content, plans the sequence and builds a runnable
// session bound to the given player aggregate. Content or planning failures
// abort before any session state is created.
func (e *Engine) NewSession(ctx context.Context, settings StartSettings, player *domain.PlayerRecord) (*Session, error) {
	var verses []domain.Verse
	for _, page := range settings.Pages {
		pageVerses, err := e.content.Page(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrContentUnavailable, page, err)
		}
		verses = append(verses, pageVerses...)
	}
	if len(verses) == 0 {
		return nil, fmt.Errorf("%w: no pages requested", domain.ErrContentUnavailable)
	}

	level := e.rules.LevelInfo(player.XP).Level
	total := settings.QuestionsCount
	if total <= 0 {
		total = e.defaultCount
	}
	if max := e.rules.MaxQuestionsForLevel(level); max > 0 && total > max {
		total = max
	}

	var recipe domain.Recipe
	switch {
	case settings.LiveEvent != nil:
		recipe = settings.LiveEvent.Recipe
	case settings.Quest != nil:
		recipe = settings.Quest.Recipe
	}

	reciter := settings.ReciterID
	if reciter == "" {
		reciter = e.defaultReciter
	}

	rng := rand.New(rand.NewSource(e.seed()))
	seq, err := Plan(total, recipe, level, e.catalog.Current(), rng)
	if err != nil {
		return nil, err
	}

	meta := SessionMeta{
		Verses:     verses,
		ReciterID:  reciter,
		PageNumber: settings.PageNumber,
		Username:   player.Username,
		LiveEvent:  settings.LiveEvent,
		Quest:      settings.Quest,
	}
	var session *Session
	session = newSession(seq, meta, e.rules.GameRules(), e.pace, rng, e.now, func(snap SessionSnapshot) *Outcome {
		outcome := e.reconciler.Reconcile(snap, player)
		e.mu.Lock()
		// A later session for the same player may already occupy the slot.
		if e.active[player.ID] == session {
			delete(e.active, player.ID)
		}
		e.mu.Unlock()
		return outcome
	})

	e.mu.Lock()
	if prev, ok := e.active[player.ID]; ok {
		prev.Discard()
	}
	if e.active == nil {
		e.active = make(map[string]*Session)
	}
	e.active[player.ID] = session
	e.mu.Unlock()

	e.log.Info("session planned",
		zap.String("player", player.ID),
		zap.Int("questions", len(seq)),
		zap.Int("level", level),
		zap.Bool("event", settings.LiveEvent != nil))
	return session, nil
}

// Discard makes a session inert: no further answers are accepted and no
// reconciliation will run. Used when a player starts a new session over a
// live one.
func (s *Session) Discard() {
	s.mu.Lock()
	s.state = StateComplete
	s.current = nil
	s.mu.Unlock()
	s.completeOnce.Do(func() {})
}
