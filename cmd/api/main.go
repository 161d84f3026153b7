package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/background"
	"github.com/monroy-qms/api/internal/config"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/handlers"
	middlewareCustom "github.com/monroy-qms/api/internal/middleware"
	"github.com/monroy-qms/api/internal/repositories"
	"github.com/monroy-qms/api/internal/routes"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
	pkglogger "github.com/monroy-qms/api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: pkglogger.ParseLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	equipmentRepo := repositories.NewEquipmentRepository(db)
	inspectionRepo := repositories.NewInspectionRepository(db)
	pfmeaRepo := repositories.NewPFMEARepository(db)
	ncrRepo := repositories.NewNCRRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	dashboardRepo := repositories.NewDashboardRepository(db)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})
	auditLogger := pkglogger.NewAuditLogger(logger)
	notifier := newNotifier(cfg.Notify, logger)

	// Services
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(
		userRepo,
		refreshRepo,
		tokenManager,
		timingDelay,
		notifier,
		auditService,
		services.AuthPolicy{
			Lockout: auth.LockoutPolicy{
				Threshold: cfg.Auth.LockoutThreshold,
				Duration:  cfg.Auth.LockoutDuration,
			},
			RefreshScanLimit: cfg.Auth.RefreshScanLimit,
			RefreshRotation:  cfg.Auth.RefreshRotation,
			BcryptCost:       cfg.Auth.BcryptCost,
		},
		logger,
		auditLogger,
	)
	userService := services.NewUserService(userRepo, clientRepo, refreshRepo, auditService, cfg.Auth.BcryptCost, logger, auditLogger)
	clientService := services.NewClientService(clientRepo, auditService, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, auditService, logger)
	inspectionService := services.NewInspectionService(inspectionRepo, pfmeaRepo, equipmentRepo, auditService, logger)
	ncrService := services.NewNCRService(ncrRepo, equipmentRepo, auditService, logger)
	dashboardService := services.NewDashboardService(dashboardRepo, logger)
	verifyService := services.NewVerifyService(equipmentRepo, inspectionRepo, logger)

	ensureAdminUser(userService, cfg.Admin, logger)

	// Handlers
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, ipConfig),
		Users:       handlers.NewUserHandler(userService, ipConfig),
		Clients:     handlers.NewClientHandler(clientService, ipConfig),
		Equipment:   handlers.NewEquipmentHandler(equipmentService, ipConfig),
		Inspections: handlers.NewInspectionHandler(inspectionService, ipConfig),
		NCRs:        handlers.NewNCRHandler(ncrService, ipConfig),
		Audit:       handlers.NewAuditHandler(auditService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Public:      handlers.NewPublicHandler(verifyService),
		Health:      handlers.NewHealthHandler(db),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, h, tokenManager, routes.Options{
		AuthRequestsPerMinute: cfg.Server.AuthRateLimitPerMin,
		IPConfig:              ipConfig,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(refreshRepo, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newNotifier returns the SES notifier when a region is configured and a
// log-only notifier otherwise. SES setup failures degrade to logging.
func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) services.Notifier {
	if cfg.AWSRegion == "" {
		logger.Info("lockout notifications disabled, no NOTIFY_AWS_REGION")
		return services.NewLogNotifier(logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier, err := services.NewAWSSESNotifier(ctx, cfg.AWSRegion, cfg.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize SES notifier, falling back to log notifier", slog.Any("error", err))
		return services.NewLogNotifier(logger)
	}
	return notifier
}

// ensureAdminUser creates the configured administrator if it does not exist yet
func ensureAdminUser(users *services.UserService, admin config.AdminConfig, logger *slog.Logger) {
	if admin.Email == "" || admin.Password == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin bootstrap")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := users.EnsureAdmin(ctx, admin.Email, admin.Password)
	if err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
		return
	}
	if created {
		logger.Info("admin user created", slog.String("email", pkglogger.SanitizedEmail(admin.Email)))
	}
}
