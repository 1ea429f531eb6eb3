package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telegram-mirror",
		Short: "Incrementally mirrors Telegram dialogs into a relational store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one incremental sync pass (the default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context())
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Pair this account via QR and write the session file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runLogin(cmd.Context(), cfg, logger)
		},
	}

	rootCmd.AddCommand(syncCmd, loginCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration from the environment and builds the logger.
func setup() (Config, *zap.Logger, error) {
	v := viper.New()
	ApplyDefaults(v)

	cfg, err := LoadConfig(v)
	if err != nil {
		return Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, logger, nil
}

// runSync executes one best-effort sync pass. Business-logic failures are
// logged and absorbed; the process exits normally either way, leaving retry
// to the next scheduled run.
func runSync(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := OpenStore(cfg.StoreDriver, cfg.DSN())
	if err != nil {
		logger.Error("store unavailable", zap.Error(err))
		return nil
	}
	defer store.Close()
	logger.Info("store initialized", zap.String("driver", cfg.StoreDriver))

	src := NewTelegramSource(cfg, logger.Named("source"))

	files, err := NewAttachmentHandler(cfg.ImagesDir, cfg.AttachmentsDir, src, logger.Named("attachments"))
	if err != nil {
		logger.Error("attachment directories unavailable", zap.Error(err))
		return nil
	}

	syncer := NewSyncer(src, store, files, cfg, logger.Named("sync"))

	// Connect and dialog listing are the only run-fatal steps; everything
	// inside the pass is contained per channel or per message.
	if err := src.Run(ctx, syncer.Run); err != nil {
		logger.Error("sync run aborted", zap.Error(err))
		return nil
	}

	logger.Info("sync pass complete")
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
