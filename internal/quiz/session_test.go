package quiz

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"quran-quiz-service/internal/domain"
)

var testRules = domain.GameRules{XPPerCorrect: 10, XPBonusPerfect: 50}

func instance(id string) Instance {
	return Instance{Archetype: Archetype{ID: id, Arity: 2, Generate: fixedGen(id)}}
}

func brokenInstance(id string) Instance {
	gen := func([]domain.Verse, string, int, *rand.Rand) *domain.RenderedQuestion { return nil }
	return Instance{Archetype: Archetype{ID: id, Arity: 2, Generate: gen}}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestSessionScoresAndLogsErrors(t *testing.T) {
	var final *SessionSnapshot
	seq := []Instance{instance("next_verse"), instance("missing_word"), instance("first_word")}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), fixedClock(time.Unix(100, 0)), func(snap SessionSnapshot) *Outcome {
		final = &snap
		return nil
	})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	fb, err := s.Submit("o1")
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if !fb.Correct || fb.Score != 1 || fb.XPEarned != 10 {
		t.Fatalf("expected correct answer worth 10 xp, got %+v", fb)
	}

	fb, err = s.Submit("o2")
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if fb.Correct || fb.CorrectAnswer != "أ" {
		t.Fatalf("expected wrong answer with revealed correction, got %+v", fb)
	}

	if _, err := s.Submit("o1"); err != nil {
		t.Fatalf("submit 3: %v", err)
	}

	if final == nil {
		t.Fatal("session never completed")
	}
	if final.Score != 2 || final.XPEarned != 20 {
		t.Fatalf("expected score 2 and 20 xp, got score=%d xp=%d", final.Score, final.XPEarned)
	}
	if len(final.ErrorLog) != 1 || final.ErrorLog[0].CorrectAnswer != "أ" {
		t.Fatalf("expected one review entry, got %+v", final.ErrorLog)
	}
	if final.Answered != 3 || final.State != StateComplete {
		t.Fatalf("expected 3 answered and complete state, got %+v", final)
	}
}

func TestSessionSingleSubmissionPerQuestion(t *testing.T) {
	seq := []Instance{instance("next_verse"), instance("missing_word")}
	// A long pace keeps the session in the scoring state after an answer.
	s := newSession(seq, SessionMeta{}, testRules, time.Hour, rand.New(rand.NewSource(1)), time.Now, nil)

	if _, err := s.Submit("o1"); !errors.Is(err, domain.ErrAnswerNotExpected) {
		t.Fatalf("expected reject before start, got %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Submit("o1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.Submit("o1"); !errors.Is(err, domain.ErrAnswerNotExpected) {
		t.Fatalf("expected duplicate submission rejected, got %v", err)
	}

	if snap := s.Snapshot(); snap.Score != 1 || snap.Answered != 1 {
		t.Fatalf("duplicate submission mutated state: %+v", snap)
	}
}

func TestSessionSkipsFailedGenerations(t *testing.T) {
	var final *SessionSnapshot
	seq := []Instance{
		instance("next_verse"),
		brokenInstance("audio_recognition"),
		instance("missing_word"),
		brokenInstance("audio_recognition"),
		instance("first_word"),
	}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, func(snap SessionSnapshot) *Outcome {
		final = &snap
		return nil
	})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Submit("o1"); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
	}

	if final == nil {
		t.Fatal("session never completed")
	}
	if final.Answered != 3 || final.Total != 5 {
		t.Fatalf("expected 3 of 5 slots answered, got answered=%d total=%d", final.Answered, final.Total)
	}
	if final.Score != 3 {
		t.Fatalf("expected score 3, got %d", final.Score)
	}
}

func TestSessionCompletesWhenNothingGenerates(t *testing.T) {
	completions := 0
	seq := []Instance{brokenInstance("a"), brokenInstance("b")}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, func(snap SessionSnapshot) *Outcome {
		completions++
		return nil
	})

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if completions != 1 {
		t.Fatalf("expected exactly one completion, got %d", completions)
	}
	if snap := s.Snapshot(); snap.Answered != 0 || snap.State != StateComplete {
		t.Fatalf("expected empty complete session, got %+v", snap)
	}
}

func TestSessionStartRequiresQuestions(t *testing.T) {
	s := newSession(nil, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, nil)
	if err := s.Start(); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestSnapshotDoesNotAdvanceSession(t *testing.T) {
	seq := []Instance{instance("next_verse"), instance("missing_word")}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := s.Snapshot()
	second := s.Snapshot()
	if first.CurrentIndex != second.CurrentIndex || first.State != second.State {
		t.Fatalf("snapshots diverge: %+v vs %+v", first, second)
	}
	if s.Current() == nil {
		t.Fatal("current question lost after snapshots")
	}
}

func TestSubscribeReceivesOrderedEvents(t *testing.T) {
	seq := []Instance{instance("next_verse")}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, func(snap SessionSnapshot) *Outcome {
		return &Outcome{}
	})
	ch, cancel := s.Subscribe()
	defer cancel()

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Submit("o2"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []EventType{EventQuestion, EventFeedback, EventCompleted}
	for _, typ := range want {
		select {
		case ev := <-ch:
			if ev.Type != typ {
				t.Fatalf("expected %s event, got %s", typ, ev.Type)
			}
			if typ == EventCompleted && ev.Outcome == nil {
				t.Fatal("completed event lost its outcome")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestDiscardedSessionIsInert(t *testing.T) {
	reconciled := false
	seq := []Instance{instance("next_verse")}
	s := newSession(seq, SessionMeta{}, testRules, 0, rand.New(rand.NewSource(1)), time.Now, func(snap SessionSnapshot) *Outcome {
		reconciled = true
		return nil
	})

	s.Discard()

	if err := s.Start(); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected restart rejected, got %v", err)
	}
	if _, err := s.Submit("o1"); !errors.Is(err, domain.ErrAnswerNotExpected) {
		t.Fatalf("expected submit rejected, got %v", err)
	}
	if reconciled {
		t.Fatal("discarded session reconciled")
	}
}
