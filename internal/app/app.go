package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloudvault/internal/config"
	"cloudvault/internal/database"
	"cloudvault/internal/handler"
	"cloudvault/internal/middleware"
	"cloudvault/internal/objectstore"
	"cloudvault/internal/repository"
	"cloudvault/internal/router"
	"cloudvault/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	slog.Info("database ready")

	store, err := objectstore.NewDriveStore(context.Background(), cfg.DriveCredentialsFile, cfg.DriveFolderID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, userRepo, tokenRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	auditService := service.NewAuditService(auditRepo, fileRepo)
	fileService := service.NewFileService(fileRepo, userRepo, store, auditService, cfg.AllowedMIMETypes, cfg.MaxUploadSize)
	shareService := service.NewShareService(fileRepo, userRepo, auditService, cfg.FrontendURL)
	userService := service.NewUserService(userRepo)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		File:  handler.NewFileHandler(fileService, cfg.MaxUploadSize, cfg.MaxUploadFiles),
		Share: handler.NewShareHandler(shareService),
		Audit: handler.NewAuditHandler(auditService),
		User:  handler.NewUserHandler(userService),
	})

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go expireTokensLoop(cleanupCtx, tokenRepo)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				cleanupCancel()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

// expireTokensLoop periodically drops refresh tokens that are past their
// expiry so the table does not accumulate dead sessions.
func expireTokensLoop(ctx context.Context, tokenRepo *repository.TokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokenRepo.CleanExpired(ctx)
			if err != nil {
				slog.Error("failed to clean expired refresh tokens", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("cleaned expired refresh tokens", "removed", removed)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		for _, cleanup := range a.cleanupFuncs {
			cleanup()
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
