package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/namann16/support-tickets/internal/api/http"
	"github.com/namann16/support-tickets/internal/api/http/handlers"
	"github.com/namann16/support-tickets/internal/auth"
	"github.com/namann16/support-tickets/internal/config"
	"github.com/namann16/support-tickets/internal/events"
	"github.com/namann16/support-tickets/internal/mail"
	"github.com/namann16/support-tickets/internal/observability"
	"github.com/namann16/support-tickets/internal/persistence"
	"github.com/namann16/support-tickets/internal/repository"
	"github.com/namann16/support-tickets/internal/screens"
	"github.com/namann16/support-tickets/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})

	mailer := mail.NewSMTPMailer(cfg.SMTP)
	notifications := service.NewNotificationService(dispatcher, mailer, logger, cfg.Notification)
	notifications.RegisterHandlers()

	registry, err := screens.Load(cfg.Screens.Path)
	if err != nil {
		logger.Warn("screen registry unavailable", zap.Error(err))
		registry = screens.Empty()
	}

	authMiddleware := auth.NewAuthMiddleware(userService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Screens:        handlers.NewScreensHandler(registry),
		AuthMiddleware: authMiddleware,
		RateLimit:      httptransport.RateLimiter(redis, logger, cfg.RateLimit),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
