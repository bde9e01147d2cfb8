package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"squizer-game-service/internal/app"
	"squizer-game-service/internal/config"
	"squizer-game-service/internal/domain"
	"squizer-game-service/internal/infra/memory"
	pgloader "squizer-game-service/internal/infra/postgres"
	redisinfra "squizer-game-service/internal/infra/redis"
	transport "squizer-game-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
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

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	historyTTL := config.TTLDuration(cfg.History.TTL, 30*24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBank())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	source := memory.NewQuestionSource(loader, bankTTL)

	var history app.HistoryStore
	var battles app.BattleRepository
	if redisClient != nil {
		history = redisinfra.NewHistoryStore(redisClient, historyTTL)
		battles = redisinfra.NewBattleStore(redisClient, redisTTL)
	} else {
		history = memory.NewHistoryStore()
		battles = memory.NewBattleStore()
	}

	// The in-memory wallet is a stand-in until the ledger API lands.
	wallet := memory.NewWallet()

	service := app.NewGameService(source, wallet, history, battles, app.WithLogger(logger))
	wsHandler := transport.NewWSHandler(service, logger)
	soloHandler := transport.NewSoloHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	soloHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting game service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBank provides a minimal question bank; production deploys load it
// from Postgres instead.
func sampleBank() []domain.Question {
	bank := make([]domain.Question, 0, 100)
	for i := 1; i <= 100; i++ {
		a, b := i, i+3
		options := []string{
			strconv.Itoa(a + b - 1),
			strconv.Itoa(a + b),
			strconv.Itoa(a + b + 1),
			strconv.Itoa(a + b + 2),
		}
		bank = append(bank, domain.Question{
			ID:      "q" + strconv.Itoa(i),
			Prompt:  "What is " + strconv.Itoa(a) + " + " + strconv.Itoa(b) + "?",
			Options: options,
			Correct: 1,
		})
	}
	return bank
}
