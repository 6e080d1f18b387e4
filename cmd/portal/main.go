package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/config"
	"github.com/danceschool/portal/internal/ui/server"
	"github.com/danceschool/portal/internal/version"
	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // CA roots for the scratch container image
)

func main() {
	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Dance school management portal",
		Long:  `Web front end for the dance school API: dashboard, financial summary and modality management`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	cmd.Version = version.Get().String()

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, corsConfigs, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	slog.SetDefault(appLogger)

	appLogger.Info("Starting portal",
		slog.String("version", version.Get().Version),
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	srv, err := server.NewServer(cfg, corsConfigs, appLogger)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("portal error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("portal shutdown complete")
	return nil
}
