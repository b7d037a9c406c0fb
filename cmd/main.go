package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fairway/roundhub/internal/config"
	"fairway/roundhub/internal/handler"
	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/notify"
	"fairway/roundhub/internal/repository"
	"fairway/roundhub/internal/service"
	"fairway/roundhub/internal/social"
	jwtpkg "fairway/roundhub/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Connect to Redis if any backend needs it
	var redisClient *redis.Client
	if cfg.State.Backend == "redis" || cfg.Notify.Backend == "redis" {
		redisClient, err = config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
	}

	// 6. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 7. Initialize repositories
	userRepo := repository.NewPGUserRepository(db)
	roundRepo := repository.NewPGRoundRepository(db)
	membershipRepo := repository.NewPGMembershipRepository(db)
	friendLinkRepo := repository.NewPGFriendLinkRepository(db)

	// 8. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	// 9. Initialize notifier (Redis pub/sub or log-only)
	var notifier notify.Notifier
	switch cfg.Notify.Backend {
	case "redis":
		notifier = notify.NewRedisNotifier(redisClient, cfg.Notify.Channel, logger)
		logger.Info("using Redis notifier", zap.String("channel", cfg.Notify.Channel))
	case "log", "":
		notifier = notify.NewLogNotifier(logger)
		logger.Info("using log notifier")
	default:
		logger.Fatal("unknown notify backend", zap.String("backend", cfg.Notify.Backend))
	}

	// 10. Social graph and profile gate
	var graph social.Graph = social.NewGraph(friendLinkRepo)
	if cfg.Social.CacheTTL > 0 {
		graph = social.NewCachedGraph(graph, stateStore, cfg.Social.CacheTTL)
	}
	profileGate := social.NewProfileGate(userRepo)

	// 11. Coordination primitives shared by the round and membership
	// services, so capacity edits serialize with seat grants.
	roundLocker := service.NewRoundLocker()
	seatAllocator := service.NewSeatAllocator(membershipRepo)

	// 12. Initialize services
	authService := service.NewAuthService(userRepo, stateStore, jwtManager)
	userService := service.NewUserService(userRepo, friendLinkRepo)
	roundService := service.NewRoundService(roundRepo, membershipRepo, userRepo, graph, roundLocker, notifier)
	membershipService := service.NewMembershipService(
		roundRepo, membershipRepo, userRepo,
		profileGate, graph, seatAllocator, roundLocker, notifier,
	)

	// 13. Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roundHandler := handler.NewRoundHandler(roundService)
	membershipHandler := handler.NewMembershipHandler(membershipService)

	// 14. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, authHandler, userHandler, roundHandler, membershipHandler)

	// 15. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 16. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 17. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
