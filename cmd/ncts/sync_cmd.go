package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/applog"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/config"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/localstore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/remotestore"
	"github.com/ncts-dev/nextcloud-tag-sync/internal/syncengine"
)

const requestTimeout = 30 * time.Second

func newSyncCmd() *cobra.Command {
	var configPath string
	var dryRun bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass between the local and remote tag stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), configPath, dryRun, logFile)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute mutations without applying them")
	cmd.Flags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	return cmd
}

func runSync(ctx context.Context, configPath string, dryRunFlag bool, logFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			return &exitError{code: 3, err: err}
		}
		return &exitError{code: 3, err: fmt.Errorf("load configuration: %w", err)}
	}
	if dryRunFlag {
		cfg.DryRun = true
	}

	logger, closer, err := applog.New(slog.LevelInfo, logFile)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("set up logging: %w", err)}
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("sync: starting", "config", cfg.String())

	local := localstore.New(cfg.LocalTagPropertyName)
	remote := remotestore.New(cfg.NextcloudInstance, cfg.User, cfg.Token, requestTimeout)

	engine, err := syncengine.New(cfg, local, remote, logger)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	if !result.OK() {
		for _, fe := range result.FileErrors {
			logger.Error("sync: file failed", "path", fe.Path, "error", fe.Err)
		}
		return &exitError{code: 1, err: fmt.Errorf("sync: completed with %d file error(s)", len(result.FileErrors))}
	}

	logger.Info("sync: finished cleanly", "files_seen", result.FilesSeen, "mutations", result.MutationsApplied)
	return nil
}
