package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/talentsift/talentsift/internal/auth"
	"github.com/talentsift/talentsift/internal/candidate"
	"github.com/talentsift/talentsift/internal/config"
	"github.com/talentsift/talentsift/internal/credits"
	"github.com/talentsift/talentsift/internal/database"
	"github.com/talentsift/talentsift/internal/email"
	httpServer "github.com/talentsift/talentsift/internal/http"
	"github.com/talentsift/talentsift/internal/job"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/ratelimit"
	"github.com/talentsift/talentsift/internal/scoring"
	"github.com/talentsift/talentsift/internal/stats"
	"github.com/talentsift/talentsift/internal/user"
	"github.com/talentsift/talentsift/internal/verification"
)

// @title           TalentSift API
// @version         1.0
// @description     Resume screening backend with credit metering, email code verification, and asynchronous scoring jobs.

// @contact.name   API Support
// @contact.email  support@talentsift.dev

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
	)

	// Initialize Redis connection (rate limiting and verification codes)
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories for the configured store driver
	var (
		userRepo      user.Repository
		jobRepo       job.Repository
		candidateRepo candidate.Repository
		statsRepo     stats.Repository
		codeStore     verification.Store
	)

	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		userRepo = user.NewBunRepository(db)
		jobRepo = job.NewBunRepository(db)
		candidateRepo = candidate.NewBunRepository(db)
		statsRepo = stats.NewBunRepository(db)
		codeStore = verification.NewRedisStore(redisClient)

	case config.StoreMemory:
		userRepo = user.NewMemoryRepository()
		jobRepo = job.NewMemoryRepository()
		candidateRepo = candidate.NewMemoryRepository()
		statsRepo = stats.NewMemoryRepository()
		codeStore = verification.NewMemoryStore()
	}

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
	)

	// Initialize verification registry and auth service
	registry := verification.NewRegistry(codeStore)
	authService := auth.NewService(
		userRepo,
		registry,
		pasetoService,
		emailService,
		logger,
		cfg.Auth.AccessTokenDuration,
	)

	// Initialize credit ledger and scoring pipeline
	ledger := credits.NewLedger(userRepo)
	scorer := scoring.NewSampleScorer()
	pool := job.NewPool(cfg.Scoring.Workers, cfg.Scoring.QueueSize, logger)
	orchestrator := job.NewOrchestrator(
		jobRepo,
		candidateRepo,
		ledger,
		statsRepo,
		scorer,
		pool,
		logger,
		cfg.Scoring.Timeout,
	)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	authMiddleware := auth.NewMiddleware(pasetoService)
	jobHandler := job.NewHandler(orchestrator, userRepo)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, jobHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Drain in-flight scoring work before exiting
		if err := pool.Shutdown(ctx); err != nil {
			return fmt.Errorf("scoring pool shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
