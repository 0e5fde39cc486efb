package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/quests"
	"quran-quiz-service/internal/quiz"
	"quran-quiz-service/internal/store"
)

// EventSource resolves live events for session starts.
type EventSource interface {
	ListActive(ctx context.Context) ([]domain.LiveEvent, error)
	Get(ctx context.Context, id string) (domain.LiveEvent, error)
}

// WSHandler drives interactive quiz sessions over a websocket connection.
type WSHandler struct {
	engine   *quiz.Engine
	rules    quiz.Rules
	events   EventSource
	quests   *quests.Tracker
	store    *store.Service
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *quiz.Engine, rules quiz.Rules, events EventSource, questTracker *quests.Tracker, storeSvc *store.Service, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		engine: engine,
		rules:  rules,
		events: events,
		quests: questTracker,
		store:  storeSvc,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Pages          []int  `json:"pages"`
	PageNumber     int    `json:"pageNumber"`
	ReciterID      string `json:"reciterId"`
	QuestionsCount int    `json:"questionsCount"`
	EventID        string `json:"eventId"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type claimPayload struct {
	QuestID string `json:"questId"`
}

type buyPayload struct {
	ItemID string `json:"itemId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type questionPayload struct {
	Position int                     `json:"position"`
	Total    int                     `json:"total"`
	Question domain.RenderedQuestion `json:"question"`
}

type playerPayload struct {
	Player domain.PlayerRecord `json:"player"`
	Level  domain.LevelInfo    `json:"level"`
}

type welcomePayload struct {
	Player domain.PlayerRecord `json:"player"`
	Level  domain.LevelInfo    `json:"level"`
	Quests []quests.Status     `json:"quests"`
}

type resultPayload struct {
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"totalQuestions"`
	XPEarned        int              `json:"xpEarned"`
	IsPerfect       bool             `json:"isPerfect"`
	DurationSeconds int              `json:"durationSeconds"`
	LevelUp         *domain.LevelUp  `json:"levelUp,omitempty"`
	Player          *playerPayload   `json:"player,omitempty"`
}

type errorReviewPayload struct {
	Errors []domain.ErrorEntry `json:"errors"`
	Result resultPayload       `json:"result"`
}

// ServeWS upgrades the request and runs the per-connection session loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	player, err := h.engine.LoadOrCreatePlayer(ctx, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", zap.Error(err))
				return
			}
		}
	}()

	questStatuses, err := h.quests.ActiveFor(ctx, player.ID)
	if err != nil {
		h.log.Warn("loading quests failed", zap.String("player", player.ID), zap.Error(err))
	}
	send <- outboundMessage[any]{Type: "welcome", Payload: welcomePayload{
		Player: *player,
		Level:  h.rules.LevelInfo(player.XP),
		Quests: questStatuses,
	}}

	var session *quiz.Session
	var cancelEvents func()
	var pumps sync.WaitGroup
	defer func() {
		if cancelEvents != nil {
			cancelEvents()
		}
		close(closeSignals)
		// An event pump may still hold a dequeued event; the send channel must
		// outlive every pump or the forward panics.
		pumps.Wait()
		close(send)
		<-writerDone
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid start payload")
				continue
			}
			if cancelEvents != nil {
				cancelEvents()
				cancelEvents = nil
			}
			newSession, err := h.startSession(ctx, payload, player)
			if err != nil {
				send <- errMsg(startErrorMessage(err))
				continue
			}
			session = newSession
			events, cancel := session.Subscribe()
			cancelEvents = cancel
			pumps.Add(1)
			go func() {
				defer pumps.Done()
				h.pumpEvents(events, send, closeSignals)
			}()
			if err := session.Start(); err != nil {
				send <- errMsg(startErrorMessage(err))
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload")
				continue
			}
			if session == nil {
				send <- errMsg("no active session")
				continue
			}
			if _, err := session.Submit(payload.OptionID); err != nil {
				// Late and duplicate submissions are dropped by contract.
				if !errors.Is(err, domain.ErrAnswerNotExpected) {
					send <- errMsg(err.Error())
				}
			}
		case "buyItem":
			var payload buyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid buy payload")
				continue
			}
			item, err := h.store.Purchase(ctx, player, payload.ItemID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "itemPurchased", Payload: map[string]any{
				"item":   item,
				"player": playerPayload{Player: *player, Level: h.rules.LevelInfo(player.XP)},
			}}
		case "claimQuest":
			var payload claimPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid claim payload")
				continue
			}
			cfg, err := h.quests.Claim(ctx, player, payload.QuestID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "questClaimed", Payload: map[string]any{
				"quest":  cfg,
				"player": playerPayload{Player: *player, Level: h.rules.LevelInfo(player.XP)},
			}}
		default:
			send <- errMsg("unsupported message type")
		}
	}
}

func (h *WSHandler) startSession(ctx context.Context, payload startPayload, player *domain.PlayerRecord) (*quiz.Session, error) {
	settings := quiz.StartSettings{
		PlayerID:       player.ID,
		Username:       player.Username,
		Pages:          payload.Pages,
		PageNumber:     payload.PageNumber,
		ReciterID:      payload.ReciterID,
		QuestionsCount: payload.QuestionsCount,
	}
	if payload.EventID != "" {
		event, err := h.events.Get(ctx, payload.EventID)
		if err != nil {
			return nil, err
		}
		settings.LiveEvent = &event
		settings.Pages = event.Pages()
		settings.PageNumber = 0
		if event.QuestionsCount > 0 {
			settings.QuestionsCount = event.QuestionsCount
		}
	} else {
		if len(settings.Pages) == 0 && payload.PageNumber > 0 {
			settings.Pages = []int{payload.PageNumber}
		}
		// Event sessions pick their own pages; free-play pages must be
		// unlocked first.
		for _, page := range settings.Pages {
			if !h.store.PageAvailable(player, page) {
				return nil, domain.ErrPageLocked
			}
		}
	}
	return h.engine.NewSession(ctx, settings, player)
}

// pumpEvents forwards session events to the writer until the subscription or
// the connection closes.
func (h *WSHandler) pumpEvents(events <-chan quiz.Event, send chan<- outboundMessage[any], closeSignals <-chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			for _, msg := range h.translate(ev) {
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			}
		case <-closeSignals:
			return
		}
	}
}

func (h *WSHandler) translate(ev quiz.Event) []outboundMessage[any] {
	switch ev.Type {
	case quiz.EventQuestion:
		return []outboundMessage[any]{{Type: "question", Payload: questionPayload{
			Position: ev.Position,
			Total:    ev.Total,
			Question: *ev.Question,
		}}}
	case quiz.EventFeedback:
		return []outboundMessage[any]{{Type: "feedback", Payload: *ev.Feedback}}
	case quiz.EventCompleted:
		if ev.Outcome == nil {
			return nil
		}
		out := []outboundMessage[any]{{Type: "saving", Payload: struct{}{}}}
		result := resultPayload{
			Score:           ev.Outcome.Result.Score,
			TotalQuestions:  ev.Outcome.Result.TotalQuestions,
			XPEarned:        ev.Outcome.Result.XPEarned,
			IsPerfect:       ev.Outcome.Result.IsPerfect,
			DurationSeconds: ev.Outcome.Result.DurationSeconds,
			LevelUp:         ev.Outcome.LevelUp,
		}
		if ev.Outcome.Player != nil {
			result.Player = &playerPayload{
				Player: *ev.Outcome.Player,
				Level:  h.rules.LevelInfo(ev.Outcome.Player.XP),
			}
		}
		if len(ev.Outcome.Result.Errors) > 0 {
			out = append(out, outboundMessage[any]{Type: "errorReview", Payload: errorReviewPayload{
				Errors: ev.Outcome.Result.Errors,
				Result: result,
			}})
		} else {
			out = append(out, outboundMessage[any]{Type: "result", Payload: result})
		}
		return out
	}
	return nil
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return "no questions available for this test"
	case errors.Is(err, domain.ErrContentUnavailable):
		return "could not load page content"
	case errors.Is(err, domain.ErrEventNotFound):
		return "live event not found"
	case errors.Is(err, domain.ErrPageLocked):
		return "page is not unlocked yet"
	default:
		return err.Error()
	}
}
