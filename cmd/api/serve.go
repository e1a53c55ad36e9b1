package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/divyadhiman22/MyNotes/config"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	v1 "github.com/divyadhiman22/MyNotes/internal/delivery/http/v1"
	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/repository/memory"
	"github.com/divyadhiman22/MyNotes/internal/repository/postgres"
	redisrepo "github.com/divyadhiman22/MyNotes/internal/repository/redis"
	"github.com/divyadhiman22/MyNotes/internal/session"
	"github.com/divyadhiman22/MyNotes/internal/usecase"
	"github.com/divyadhiman22/MyNotes/pkg/auth"
	"github.com/divyadhiman22/MyNotes/pkg/database"
	"github.com/divyadhiman22/MyNotes/pkg/email"
	"github.com/divyadhiman22/MyNotes/pkg/logger"
	redisclient "github.com/divyadhiman22/MyNotes/pkg/redis"
	"github.com/divyadhiman22/MyNotes/pkg/security"
	"github.com/divyadhiman22/MyNotes/pkg/validation"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Info("Starting MyNotes backend", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.Environment)

	audit := security.NewSecurityLogger("mynotes-api", cfg.Environment)
	defer func() { _ = audit.Sync() }()

	checks := map[string]usecase.Pinger{}

	// 1. Storage
	var (
		users domain.UserRepository
		notes domain.NoteDocumentStore
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("Using in-memory storage - data is lost on restart")
		users = memory.NewUserRepository()
		notes = memory.NewNoteStore()
	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if migrateOnStart {
			if _, err := database.ApplyMigrations(ctx, pool, logger.Log); err != nil {
				return err
			}
		}
		users = postgres.NewUserRepository(pool)
		notes = postgres.NewNoteStore(pool)
		checks["database"] = pool.Ping
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// 2. Redis: sessions, rate limits and failed-login tracking
	var (
		sessions    domain.SessionStore
		redisClient *goredis.Client
	)
	client, err := redisclient.New(ctx, redisclient.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	switch {
	case err == nil:
		defer client.Close()
		redisClient = client
		sessions = redisrepo.NewSessionStore(client)
		checks["redis"] = func(ctx context.Context) error { return redisclient.HealthCheck(ctx, client) }
	case errors.Is(err, redisclient.ErrNotConfigured) || !cfg.IsProduction():
		logger.Log.Warn("Redis unavailable - sessions and rate limits are in-memory", "error", err)
		sessions = memory.NewSessionStore()
	default:
		return err
	}

	// 3. Auth
	loginCfg := security.DefaultLoginTrackerConfig()
	loginCfg.MaxAttempts = cfg.FailedLoginMaxAttempts
	loginCfg.BlockDuration = time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute

	var provider domain.IdentityProvider
	if cfg.GoogleEnabled() {
		keys := auth.NewKeySet(auth.GoogleCertsURL, &http.Client{Timeout: 10 * time.Second})
		provider = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		}, keys)
	} else {
		logger.Log.Warn("Google sign-in not configured")
	}

	validate := validation.New()
	authUC := usecase.NewAuthUsecase(usecase.AuthDeps{
		Users:      users,
		Sessions:   sessions,
		Tokens:     auth.NewTokenIssuer(cfg.JWTSecret),
		Provider:   provider,
		Logins:     security.NewLoginTracker(redisClient, loginCfg, audit),
		Audit:      audit,
		Validate:   validate,
		Logger:     logger.Log,
		SessionTTL: cfg.SessionTTL,
	})

	// 4. Session workspaces
	policy := session.DefaultPolicy()
	policy.PublicEntry = cfg.PublicEntryPath
	policy.DefaultView = cfg.DefaultViewPath
	registry := session.NewRegistry(sessions, func() domain.NoteRepository {
		return usecase.NewNoteRepository(notes, logger.Log)
	}, policy, cfg.WorkspaceIdleTTL, logger.Log)
	registry.StartJanitor(time.Minute)
	defer registry.Close()

	rateLimiter := middleware.NewRateLimiter(redisClient, audit)
	if redisClient == nil {
		go sweepRateLimits(ctx, rateLimiter)
	}

	// 5. Email
	emailService := email.NewEmailService(email.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.SMTPFromEmail,
		ToEmail:   cfg.ContactEmailTo,
	})
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - contact form will be unavailable")
	}

	// 6. Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:      authUC,
		ContactUC:   usecase.NewContactUsecase(emailService),
		PageUC:      usecase.NewPageUsecase(),
		HealthUC:    usecase.NewHealthUsecase(checks),
		Registry:    registry,
		RateLimiter: rateLimiter,
		Audit:       audit,
		Validate:    validate,
		Config:      cfg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}

func sweepRateLimits(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.Sweep(now)
		}
	}
}
