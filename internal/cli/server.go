package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"medlearn-service/internal/app"
	"medlearn-service/internal/clients/openai"
	"medlearn-service/internal/clients/twilio"
	"medlearn-service/internal/config"
	"medlearn-service/internal/domain"
	"medlearn-service/internal/infra/memory"
	"medlearn-service/internal/infra/postgres"
	infraredis "medlearn-service/internal/infra/redis"
	transport "medlearn-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the content server",
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

	// In-memory store backs demo runs with no Postgres configured.
	var (
		contentStore app.ContentStore
		quizStore    app.QuizStore
		accountStore app.AccountStore
		responses    app.ResponseLoader
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		store := postgres.NewStore(db)
		contentStore, quizStore, accountStore = store, store, store

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		responses = postgres.NewResponseLoader(pool)
	} else {
		store := memory.NewStore()
		seedColleges(store)
		contentStore, quizStore, accountStore = store, store, store
		responses = store
	}

	boardTTL := config.TTLDuration(cfg.Leaderboard.TTL, 10*time.Minute)
	builder := app.NewBoardBuilder(responses)
	var boards app.BoardCache
	if redisClient != nil {
		boards = infraredis.NewBoardCache(redisClient, builder, boardTTL)
	} else {
		boards = memory.NewBoardCache(builder, boardTTL)
	}

	live := app.NewLiveBoards()
	contentService := app.NewContentService(contentStore)
	quizService := app.NewQuizService(quizStore, responses, boards, live)

	var verifier app.OTPVerifier
	if cfg.Twilio.AccountSID != "" {
		verifier, err = twilio.New(twilio.Config{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			ServiceSID: cfg.Twilio.ServiceSID,
		})
		if err != nil {
			return err
		}
	}
	accountService := app.NewAccountService(accountStore, verifier)

	var generateService *app.GenerateService
	if cfg.OpenAI.APIKey != "" {
		completer, err := openai.New(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			return err
		}
		generateService = app.NewGenerateService(
			completer,
			contentService,
			quizService,
			cfg.Generate.Attempts,
			config.TTLDuration(cfg.Generate.Delay, 2*time.Second),
		)
	}

	handler := transport.NewRouter(contentService, quizService, accountService, generateService)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting medlearn service on :%s", finalPort)
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

// seedColleges gives the in-memory store something to register against.
func seedColleges(store *memory.Store) {
	store.AddCollege(domain.College{ID: "college-1", Name: "Grant Medical College"})
	store.AddCollege(domain.College{ID: "college-2", Name: "Madras Medical College"})
	store.AddCollege(domain.College{ID: "college-3", Name: "King George's Medical University"})
}
