package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/auth"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/infra/memory"
	"quiz-session-engine/internal/resultsync"
)

// NewResyncCmd makes one sync attempt for every staged pending result. This is
// the manual retry path; nothing re-queues automatically after a failed sync.
func NewResyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Push staged quiz results to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResync(cmd.Context(), *configPath)
		},
	}
}

func runResync(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url not configured")
	}
	credential := backendToken(cfg.Backend.Token)
	if credential == "" {
		return fmt.Errorf("no credential configured (backend.token or QUIZ_BACKEND_TOKEN)")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	pending, closePending, err := newPendingStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closePending()

	service := app.NewQuizService(
		memory.NewSessionRegistry(),
		memory.NewQuestionRepository(memory.NewStaticBankLoader(nil), 0),
		pending,
		resultsync.New(cfg.Backend.BaseURL, nil),
		auth.NewStaticTokenSource(credential),
		app.Config{},
	)

	synced, err := service.ResyncPending(ctx, credential)
	log.Printf("resync: %d result(s) pushed", synced)
	return err
}
