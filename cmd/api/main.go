package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/ticketbooth/eventpass/internal/api/http"
	"github.com/ticketbooth/eventpass/internal/api/http/handlers"
	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/config"
	"github.com/ticketbooth/eventpass/internal/document"
	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/observability"
	"github.com/ticketbooth/eventpass/internal/persistence"
	"github.com/ticketbooth/eventpass/internal/repository"
	"github.com/ticketbooth/eventpass/internal/service"
	"github.com/ticketbooth/eventpass/internal/worker"
	"github.com/ticketbooth/eventpass/web"
)

func main() {
	var (
		envFiles []string
		dataDir  string
		port     string
	)
	flagSet := pflag.NewFlagSet("eventpass", pflag.ContinueOnError)
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default: .env)")
	flagSet.StringVar(&dataDir, "data-dir", "", "directory holding the JSON collections (overrides STORAGE_DATA_DIR)")
	flagSet.StringVar(&port, "port", "", "HTTP port (overrides APP_PORT)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("invalid flags: %v", err)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if port != "" {
		cfg.App.Port = port
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openRecordStore(ctx, cfg, logger)
	defer closeStore()

	var (
		sessions auth.SessionStore
		redis    *persistence.Redis
	)
	switch cfg.Auth.SessionBackend {
	case config.SessionBackendRedis:
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sessions = auth.NewRedisSessionStore(redis.Client)
	default:
		sessions = auth.NewMemorySessionStore(cfg.Auth.SessionTTL())
	}

	userRepo := repository.NewUserRepository(store)
	ticketRepo := repository.NewTicketRepository(store)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Generator:  document.NewPDFGenerator("Ticket"),
		Dispatcher: dispatcher,
		Logger:     logger,
		ArchiveDir: cfg.Tickets.ArchiveDir,
	})
	accountService := service.NewAccountService(service.AccountDependencies{
		UserRepo:      userRepo,
		Tickets:       ticketService,
		Dispatcher:    dispatcher,
		Logger:        logger,
		BcryptCost:    cfg.Auth.BcryptCost,
		AdminUsername: cfg.Auth.AdminUsername,
	})
	if err := accountService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminEmail); err != nil {
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	authService := service.NewAuthService(accountService, sessions, tokens)
	authMiddleware := auth.NewAuthMiddleware(cfg.Auth.CookieName, authService.TokenManager(), sessions, userRepo)

	metrics := observability.NewMetrics(cfg.App.Name)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 web.NewEngine(),
		ErrorHandler:          httptransport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{"record_store": store}
	if redis != nil {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Users: handlers.NewUsersHandler(authService, accountService, handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Admin:          handlers.NewAdminHandler(accountService, logger),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Storage.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openRecordStore selects the collection backend.
func openRecordStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persistence.RecordStore, func()) {
	if cfg.Storage.Driver == config.StorageDriverPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return persistence.NewRecordStore(persistence.NewPostgresBackend(pg.PoolHandle())), pg.Close
	}

	backend, err := persistence.NewFileBackend(cfg.Storage.DataDir)
	if err != nil {
		logger.Fatal("failed to open data directory", zap.String("dir", cfg.Storage.DataDir), zap.Error(err))
	}
	return persistence.NewRecordStore(backend), func() {}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
