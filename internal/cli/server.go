package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/auth"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/mcqapi"
	"quiz-session-engine/internal/infra/memory"
	pgloader "quiz-session-engine/internal/infra/postgres"
	redisinfra "quiz-session-engine/internal/infra/redis"
	sqlitestore "quiz-session-engine/internal/infra/sqlite"
	"quiz-session-engine/internal/resultsync"
	transport "quiz-session-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
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
	}

	// Bank loading order of preference: Postgres, backend MCQ API, built-in sample.
	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	switch {
	case pool != nil:
		loader = pgloader.NewBankLoader(pool)
	case cfg.Backend.BaseURL != "":
		loader = mcqapi.NewLoader(cfg.Backend.BaseURL, nil)
	}

	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	var banks app.QuestionRepository
	if redisClient != nil {
		banks = redisinfra.NewQuestionRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewQuestionRepository(loader, bankTTL)
	}

	pending, closePending, err := newPendingStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closePending()

	synchronizer := resultsync.New(cfg.Backend.BaseURL, nil)
	credentials := auth.NewStaticTokenSource(backendToken(cfg.Backend.Token))

	service := app.NewQuizService(memory.NewSessionRegistry(), banks, pending, synchronizer, credentials, app.Config{
		QuestionSeconds: cfg.Quiz.QuestionSeconds,
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newPendingStore picks the durable staging medium: Redis when configured,
// otherwise a local SQLite file.
func newPendingStore(cfg config.Config, redisClient *redis.Client) (app.PendingResultStore, func(), error) {
	if redisClient != nil {
		return redisinfra.NewPendingStore(redisClient), func() {}, nil
	}
	store, err := sqlitestore.NewPendingStore(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// sampleBanks provides a minimal question set for demos without a configured
// backend or database.
func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"arithmetic": {
			ID:       "arithmetic-basics",
			TopicKey: "arithmetic",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: map[string]string{
						"a": "3",
						"b": "4",
						"c": "5",
					},
					CorrectOptionKey: "b",
				},
			},
		},
	}
}
