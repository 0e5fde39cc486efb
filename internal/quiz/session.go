package quiz

import (
	"math/rand"
	"sync"
	"time"

	"quran-quiz-service/internal/domain"
)

// State is the session runner's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAwaitingAnswer
	StateScoring
	StateAdvancing
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateScoring:
		return "scoring"
	case StateAdvancing:
		return "advancing"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// SessionMeta is the immutable context a session runs against.
type SessionMeta struct {
	Verses     []domain.Verse
	ReciterID  string
	PageNumber int
	Username   string
	LiveEvent  *domain.LiveEvent
	Quest      *domain.QuestConfig
}

// AnswerFeedback is returned to the presenter after each submission.
type AnswerFeedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	XPEarned      int    `json:"xpEarned"`
}

// SessionSnapshot is a read-only copy of the session state. Taking one never
// mutates the session.
type SessionSnapshot struct {
	State        State
	CurrentIndex int
	Total        int
	Answered     int
	Score        int
	XPEarned     int
	ErrorLog     []domain.ErrorEntry
	StartedAt    time.Time
	Meta         SessionMeta
}

// EventType enumerates session events pushed to subscribers.
type EventType string

const (
	EventQuestion  EventType = "question"
	EventFeedback  EventType = "feedback"
	EventCompleted EventType = "completed"
)

// Event is one session update for the presentation layer.
type Event struct {
	Type     EventType
	Position int
	Total    int
	Question *domain.RenderedQuestion
	Feedback *AnswerFeedback
	Outcome  *Outcome
}

// Session is a sequential state machine over one planned question sequence.
// It is advanced only by external events (answer submission, pacing timer)
// and never presents two questions concurrently.
type Session struct {
	mu sync.Mutex

	state    State
	meta     SessionMeta
	seq      []Instance
	idx      int
	score    int
	xpEarned int
	answered int
	errorLog []domain.ErrorEntry
	current  *domain.RenderedQuestion
	started  time.Time

	rules domain.GameRules
	pace  time.Duration
	rng   *rand.Rand
	now   func() time.Time

	onComplete   func(SessionSnapshot) *Outcome
	completeOnce sync.Once

	subscribers map[chan Event]struct{}
}

func newSession(seq []Instance, meta SessionMeta, rules domain.GameRules, pace time.Duration, rng *rand.Rand, now func() time.Time, onComplete func(SessionSnapshot) *Outcome) *Session {
	return &Session{
		state:       StateIdle,
		meta:        meta,
		seq:         seq,
		rules:       rules,
		pace:        pace,
		rng:         rng,
		now:         now,
		onComplete:  onComplete,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Start resets counters and presents the first question. It fails when the
// planned sequence is empty; a completed session cannot be restarted.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == StateComplete {
		s.mu.Unlock()
		return domain.ErrSessionComplete
	}
	if len(s.seq) == 0 {
		s.mu.Unlock()
		return domain.ErrNoQuestionsAvailable
	}
	s.idx = 0
	s.score = 0
	s.xpEarned = 0
	s.answered = 0
	s.errorLog = nil
	s.started = s.now()
	done := s.presentLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if done {
		s.fireComplete(snap)
	}
	return nil
}

// Submit records the answer for the currently presented question. At most one
// submission per question is accepted; late or duplicate calls get
// ErrAnswerNotExpected and change nothing.
func (s *Session) Submit(optionID string) (AnswerFeedback, error) {
	s.mu.Lock()
	if s.state != StateAwaitingAnswer || s.current == nil {
		s.mu.Unlock()
		return AnswerFeedback{}, domain.ErrAnswerNotExpected
	}

	correct := optionID == s.current.CorrectOptionID
	s.answered++
	if correct {
		s.score++
		s.xpEarned += s.rules.XPPerCorrect
	} else {
		s.errorLog = append(s.errorLog, domain.ErrorEntry{
			Question:      *s.current,
			CorrectAnswer: s.current.CorrectText,
		})
	}
	s.state = StateScoring
	fb := AnswerFeedback{
		Correct:       correct,
		CorrectAnswer: s.current.CorrectText,
		Score:         s.score,
		XPEarned:      s.xpEarned,
	}
	s.broadcastLocked(Event{Type: EventFeedback, Position: s.idx + 1, Total: len(s.seq), Feedback: &fb})

	// The pacing pause lets the learner read feedback before the next
	// question. A non-positive pace advances inline (tests).
	var done bool
	var snap SessionSnapshot
	if s.pace > 0 {
		time.AfterFunc(s.pace, s.advance)
		s.mu.Unlock()
		return fb, nil
	}
	done, snap = s.advanceLocked()
	s.mu.Unlock()
	if done {
		s.fireComplete(snap)
	}
	return fb, nil
}

func (s *Session) advance() {
	s.mu.Lock()
	done, snap := s.advanceLocked()
	s.mu.Unlock()
	if done {
		s.fireComplete(snap)
	}
}

func (s *Session) advanceLocked() (bool, SessionSnapshot) {
	if s.state != StateScoring {
		return false, SessionSnapshot{}
	}
	s.state = StateAdvancing
	s.idx++
	done := s.presentLocked()
	return done, s.snapshotLocked()
}

// presentLocked generates the question at the current index, skipping slots
// whose generator cannot produce one. Skips are bounded by the sequence
// length, so a run of failures ends the session rather than looping. Returns
// true when the session reached Complete.
func (s *Session) presentLocked() bool {
	for s.idx < len(s.seq) {
		inst := s.seq[s.idx]
		q := inst.Archetype.Generate(s.meta.Verses, s.meta.ReciterID, inst.Archetype.Arity, s.rng)
		if q == nil {
			s.idx++
			continue
		}
		s.current = q
		s.state = StateAwaitingAnswer
		s.broadcastLocked(Event{Type: EventQuestion, Position: s.idx + 1, Total: len(s.seq), Question: q})
		return false
	}
	s.current = nil
	s.state = StateComplete
	return true
}

// fireComplete hands the terminal snapshot to the reconciler exactly once and
// then publishes the outcome to subscribers.
func (s *Session) fireComplete(snap SessionSnapshot) {
	s.completeOnce.Do(func() {
		var outcome *Outcome
		if s.onComplete != nil {
			outcome = s.onComplete(snap)
		}
		s.mu.Lock()
		s.broadcastLocked(Event{Type: EventCompleted, Total: len(s.seq), Outcome: outcome})
		s.mu.Unlock()
	})
}

// Snapshot returns a read-only copy of the current session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	errs := make([]domain.ErrorEntry, len(s.errorLog))
	copy(errs, s.errorLog)
	return SessionSnapshot{
		State:        s.state,
		CurrentIndex: s.idx,
		Total:        len(s.seq),
		Answered:     s.answered,
		Score:        s.score,
		XPEarned:     s.xpEarned,
		ErrorLog:     errs,
		StartedAt:    s.started,
		Meta:         s.meta,
	}
}

// Current returns the question awaiting an answer, or nil.
func (s *Session) Current() *domain.RenderedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer {
		return nil
	}
	return s.current
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update so a slow consumer cannot stall the session.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
