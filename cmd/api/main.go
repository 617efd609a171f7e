package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/practice-service/internal/api/http"
	"github.com/spec-kit/practice-service/internal/api/http/handlers"
	"github.com/spec-kit/practice-service/internal/auth"
	"github.com/spec-kit/practice-service/internal/config"
	"github.com/spec-kit/practice-service/internal/domain"
	"github.com/spec-kit/practice-service/internal/events"
	"github.com/spec-kit/practice-service/internal/observability"
	"github.com/spec-kit/practice-service/internal/persistence"
	"github.com/spec-kit/practice-service/internal/ratelimit"
	"github.com/spec-kit/practice-service/internal/repository"
	"github.com/spec-kit/practice-service/internal/service"
	"github.com/spec-kit/practice-service/internal/worker"
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
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	caseStore := repository.NewStore[domain.Case](pool, repository.TableSpec{
		Name:     "cases",
		Resource: "case",
		Columns: []string{"id", "case_number", "client_id", "title", "description",
			"practice_area", "status", "priority", "opened_by", "assigned_to",
			"assigned_by", "assigned_at", "created_at", "updated_at", "closed_at"},
		Required:   []string{"case_number", "client_id", "title", "opened_by"},
		SearchCols: []string{"title", "description", "case_number"},
		SortCols:   []string{"created_at", "updated_at", "priority", "status", "case_number"},
	})
	clientStore := repository.NewStore[domain.Client](pool, repository.TableSpec{
		Name:       "clients",
		Resource:   "client",
		Columns:    []string{"id", "name", "type", "email", "phone", "address", "notes", "created_at", "updated_at"},
		Required:   []string{"name", "type"},
		SearchCols: []string{"name", "email"},
		SortCols:   []string{"created_at", "updated_at", "name"},
	})
	documentStore := repository.NewStore[domain.Document](pool, repository.TableSpec{
		Name:     "documents",
		Resource: "document",
		Columns: []string{"id", "case_id", "title", "category", "storage_key",
			"mime_type", "size_bytes", "uploaded_by", "description", "created_at", "updated_at"},
		Required:   []string{"case_id", "title", "storage_key", "uploaded_by"},
		SearchCols: []string{"title", "description"},
		SortCols:   []string{"created_at", "updated_at", "title", "category"},
	})

	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	timelineRepo := repository.NewTimelineEventRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)

	limiter := ratelimit.NewLoginLimiter(redis.Client, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindowSec)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Limiter:     limiter,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		Store:      caseStore,
		CaseRepo:   caseRepo,
		Timeline:   timelineRepo,
		TxRunner:   repository.NewCaseTxRunner(pool),
		Dispatcher: dispatcher,
	})
	clientService := service.NewResourceService(clientStore, "client")
	documentService := service.NewResourceService(documentStore, "document")

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, sessionRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Cases:          handlers.NewCasesHandler(caseService),
		Clients:        handlers.NewResourceHandler(clientService),
		Documents:      handlers.NewResourceHandler(documentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
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
