package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docbridge/docbridge/internal/config"
	"github.com/docbridge/docbridge/internal/db"
	"github.com/docbridge/docbridge/internal/events"
	"github.com/docbridge/docbridge/internal/httpapi"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/predictor"
	"github.com/docbridge/docbridge/internal/rating"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DocBridge HTTP server",
		Long:  "Starts the consultation API, the scheduled rating audit, and blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "docbridge.yaml", "path to DocBridge config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	gormDB, err := db.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	dir := buildDirectory(cfg)

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		logger.Info("domain event",
			zap.String("type", string(e.Type)),
			zap.String("consultationId", e.ConsultationID),
			zap.String("doctorId", e.DoctorID))
	})

	pred := predictor.New(cfg.Predictor.BaseURL,
		time.Duration(cfg.Predictor.TimeoutSeconds)*time.Second, logger)

	router := httpapi.NewRouter(&httpapi.API{
		DB:        gormDB,
		Bus:       bus,
		Directory: dir,
		Predictor: pred,
		Secret:    cfg.Auth.Secret,
		Logger:    logger,
	})
	server := httpapi.NewServer(cfg.Server.Addr, router, logger)

	// Scheduled rating-summary audit.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Audit.Schedule, func() {
		repaired, err := rating.Audit(gormDB, logger)
		if err != nil {
			logger.Error("rating audit failed", zap.Error(err))
			return
		}
		if repaired > 0 {
			logger.Warn("rating audit repaired summaries", zap.Int("repaired", repaired))
		}
	}); err != nil {
		return fmt.Errorf("schedule audit %q: %w", cfg.Audit.Schedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// buildDirectory picks the directory backend: HTTP when a base URL is
// configured, otherwise a static directory seeded from config.
func buildDirectory(cfg *config.Config) identity.Directory {
	if cfg.Directory.BaseURL != "" {
		return identity.NewHTTPDirectory(cfg.Directory.BaseURL)
	}
	static := identity.NewStaticDirectory()
	for _, u := range cfg.Directory.Users {
		static.Add(identity.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	}
	return static
}
