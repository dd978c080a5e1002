package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rehabinv-cli/internal/backup"
	"rehabinv-cli/internal/config"
	"rehabinv-cli/internal/logging"
	"rehabinv-cli/internal/mongostore"
	"rehabinv-cli/internal/server"
	"rehabinv-cli/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var storage string
	var backupCron string
	var backupDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST backend used by --backend api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("storage") {
				cfg.Server.Storage = strings.ToLower(strings.TrimSpace(storage))
			}
			if cmd.Flags().Changed("backup-cron") {
				cfg.Backup.Cron = backupCron
			}
			if cmd.Flags().Changed("backup-dir") {
				cfg.Backup.Dir = backupDir
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}

			// The server logs to stderr unless --log points elsewhere.
			logger := app.log
			if strings.TrimSpace(cfg.Log.File) == "" {
				l, err := logging.New(cfg.Log.Level)
				if err != nil {
					return writeErr(cmd, err)
				}
				logger = l
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, closeRepo, err := openServerRepository(ctx, cfg, logger)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeRepo()

			if strings.TrimSpace(cfg.Backup.Cron) != "" {
				sched, err := backup.NewScheduler(cfg.Backup.Cron, cfg.Backup.Dir, repo, logging.Named(logger, "backup"))
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := sched.Start(); err != nil {
					return writeErr(cmd, err)
				}
				defer sched.Stop()
			}

			srv := server.New(repo, logging.Named(logger, "http"))
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr(config.EnvAddr, ":3000"), "Listen address")
	cmd.Flags().StringVar(&storage, "storage", envOr(config.EnvStorage, config.StorageSQLite), "Server storage (sqlite|mongo)")
	cmd.Flags().StringVar(&backupCron, "backup-cron", envOr(config.EnvBackupCron, ""), "Cron spec for CSV backups (empty disables)")
	cmd.Flags().StringVar(&backupDir, "backup-dir", envOr(config.EnvBackupDir, ""), "Backup directory (default: <dir>/backups)")
	return cmd
}

func openServerRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (server.Repository, func(), error) {
	switch cfg.Server.Storage {
	case config.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		ms, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.DBName, logging.Named(logger, "mongo"))
		if err != nil {
			return nil, nil, err
		}
		return ms, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Close(closeCtx); err != nil {
				logger.Warn("failed to disconnect mongodb", zap.Error(err))
			}
		}, nil
	case config.StorageSQLite:
		s := store.Store{Dir: cfg.Client.Dir}
		if err := s.Ensure(); err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite storage", zap.String("path", s.Describe()))
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Server.Storage)
	}
}
