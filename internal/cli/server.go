package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quran-quiz-service/internal/achievements"
	"quran-quiz-service/internal/config"
	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/generators"
	"quran-quiz-service/internal/infra/memory"
	"quran-quiz-service/internal/infra/postgres"
	redisinfra "quran-quiz-service/internal/infra/redis"
	"quran-quiz-service/internal/infra/quranapi"
	"quran-quiz-service/internal/logger"
	"quran-quiz-service/internal/progression"
	"quran-quiz-service/internal/quests"
	"quran-quiz-service/internal/quiz"
	"quran-quiz-service/internal/store"
	transport "quran-quiz-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Content source: the public text API behind a page cache.
	apiClient := quranapi.NewClient(cfg.Content.BaseURL)
	contentTTL := config.Duration(cfg.Content.TTL, time.Hour)
	var content quiz.ContentSource
	if redisClient != nil {
		content = redisinfra.NewPageCache(redisClient, apiClient, contentTTL)
	} else {
		content = memory.NewPageCache(apiClient, contentTTL)
	}

	// Game configuration: Postgres-backed when available, compiled-in otherwise.
	registry := generators.Default(cfg.Content.AudioCDN)
	entries := demoQuestionConfigs()
	rules := progression.Default()
	questConfigs := quests.DefaultConfigs()
	storeItems := store.DefaultItems()

	var players quiz.PlayerStore
	var results quiz.ResultStore
	var mastery quiz.MasteryTracker
	var questProgress quests.ProgressStore
	var events transport.EventSource
	var leaderboard transport.LeaderboardSource

	if pool != nil {
		configStore := postgres.NewConfigStore(pool)
		if stored, err := configStore.QuestionConfigs(ctx); err != nil {
			log.Warn("loading question config failed, using defaults", zap.Error(err))
		} else if len(stored) > 0 {
			entries = stored
		}
		if settings, ok, err := configStore.ProgressionSettings(ctx); err != nil {
			log.Warn("loading progression config failed, using defaults", zap.Error(err))
		} else if ok {
			rules = progression.New(settings)
		}
		if stored, err := configStore.QuestConfigs(ctx); err != nil {
			log.Warn("loading quest config failed, using defaults", zap.Error(err))
		} else if len(stored) > 0 {
			questConfigs = stored
		}
		if stored, err := configStore.StoreItems(ctx); err != nil {
			log.Warn("loading store config failed, using defaults", zap.Error(err))
		} else if len(stored) > 0 {
			storeItems = stored
		}

		playerStore := postgres.NewPlayerStore(pool)
		players = playerStore
		leaderboard = playerStore
		results = postgres.NewResultStore(pool)
		mastery = postgres.NewMasteryStore(pool)
		questProgress = postgres.NewQuestProgressStore(pool)
		events = configStore
	} else {
		playerStore := memory.NewPlayerStore()
		players = playerStore
		leaderboard = playerStore
		results = memory.NewResultStore()
		mastery = memory.NewMasteryStore()
		questProgress = memory.NewQuestProgressStore()
		events = memory.NewEventStore(nil)
	}

	catalog := quiz.NewCatalogProvider(quiz.BuildCatalog(entries, registry))
	questTracker := quests.NewTracker(questConfigs, questProgress, nil, log)
	achievementEngine := achievements.NewEngine(achievements.Defaults(), log)

	engine := quiz.NewEngine(quiz.Deps{
		Catalog:          catalog,
		Content:          content,
		Players:          players,
		Results:          results,
		Mastery:          mastery,
		Notifiers:        []quiz.Notifier{questTracker, achievementEngine},
		Rules:            rules,
		Logger:           log,
		Pace:             config.Duration(cfg.Quiz.FeedbackDelay, 3*time.Second),
		DefaultQuestions: cfg.Quiz.DefaultQuestions,
		DefaultReciter:   cfg.Quiz.DefaultReciter,
	})

	storeSvc := store.NewService(storeItems, players, nil, log)
	wsHandler := transport.NewWSHandler(engine, rules, events, questTracker, storeSvc, log)
	router := transport.NewRouter(wsHandler, leaderboard, events, storeSvc, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// demoQuestionConfigs enables every built-in archetype; production stores
// these rows in question_config.
func demoQuestionConfigs() []domain.ArchetypeConfig {
	return []domain.ArchetypeConfig{
		{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true},
		{ID: "previous_verse", MinLevel: 2, OptionsCount: 4, Active: true},
		{ID: "missing_word", MinLevel: 1, OptionsCount: 4, Active: true},
		{ID: "first_word", MinLevel: 3, OptionsCount: 4, Active: true},
		{ID: "audio_recognition", MinLevel: 2, OptionsCount: 4, Active: true},
	}
}
