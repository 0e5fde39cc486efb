package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/store"
)

// LeaderboardSource lists the highest-ranked players.
type LeaderboardSource interface {
	ListTop(ctx context.Context, limit int) ([]domain.PlayerRecord, error)
}

const leaderboardSize = 10

// leaderboardEntry is the public projection of a player row.
type leaderboardEntry struct {
	Username string `json:"username"`
	XP       int    `json:"xp"`
}

// NewRouter assembles the HTTP surface: health check, the websocket session
// endpoint and the small REST API for menus.
func NewRouter(ws *WSHandler, leaderboard LeaderboardSource, events EventSource, storeSvc *store.Service, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", func(w http.ResponseWriter, req *http.Request) {
			players, err := leaderboard.ListTop(req.Context(), leaderboardSize)
			if err != nil {
				log.Warn("leaderboard query failed", zap.Error(err))
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
			entries := make([]leaderboardEntry, 0, len(players))
			for _, p := range players {
				entries = append(entries, leaderboardEntry{Username: p.Username, XP: p.XP})
			}
			writeJSON(w, entries)
		})
		r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
			active, err := events.ListActive(req.Context())
			if err != nil {
				log.Warn("events query failed", zap.Error(err))
				http.Error(w, "events unavailable", http.StatusInternalServerError)
				return
			}
			writeJSON(w, active)
		})
		r.Get("/store", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, storeSvc.Items())
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
