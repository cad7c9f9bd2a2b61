package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viant/exclusor"
	"github.com/viant/exclusor/internal/logger"
	"go.uber.org/zap"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP triggers and the daily reset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg, err := load(ctx)
			if err != nil {
				return err
			}
			if err = cfg.Validate(); err != nil {
				return err
			}
			cfg.Logging.Version = version
			log := logger.Init(cfg.Logging)
			defer func() { _ = log.Sync() }()

			srv, err := exclusor.New(ctx, cfg, exclusor.WithLogger(log), exclusor.WithVersion(version))
			if err != nil {
				return err
			}
			done := make(chan error, 1)
			go func() { done <- srv.Start(ctx) }()
			select {
			case err = <-done:
			case <-ctx.Done():
				log.Info("shutting down")
			}
			if sErr := srv.Shutdown(context.WithoutCancel(ctx)); sErr != nil {
				log.Warn("shutdown failed", zap.Error(sErr))
			}
			return err
		},
	}
}
