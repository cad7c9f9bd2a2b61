package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/exclusor"
	"github.com/viant/exclusor/internal/logger"
	"github.com/viant/exclusor/service/endpoint"
	"github.com/viant/exclusor/service/exclusion"
	"github.com/viant/exclusor/service/replica"
)

func openExclusions(ctx context.Context, cfg *exclusor.Config, replicator replica.Replicator) (*exclusion.Store, error) {
	return exclusion.New(ctx, cfg.Store.ExclusionURL,
		exclusion.WithFS(afs.New()),
		exclusion.WithReplicator(replicator),
		exclusion.WithLogger(logger.L()))
}

func newListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print excluded clusters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openExclusions(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newPendingCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Print requests awaiting a decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			store, err := exclusor.NewPendingStore(cmd.Context(), cfg.Store, afs.New(), logger.L())
			if err != nil {
				return err
			}
			requests, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range requests {
				created := "-"
				if !r.CreatedAt.IsZero() {
					created = r.CreatedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", r.ClusterID, r.RequesterID, created, r.Reason)
			}
			return nil
		},
	}
}

func newResetCmd(load configLoader) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the exclusion list now and replicate it",
		Long: "Clear the exclusion list now and replicate it.\n\n" +
			"With --server the running service clears its own list, serialised with in-flight approvals. " +
			"Without it the list file is rewritten directly, which is only safe while the service is stopped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}
			if serverURL != "" {
				return remoteReset(cmd, serverURL, cfg.Server.AdminToken)
			}
			replicator, err := exclusor.NewReplicator(cfg.Replica, afs.New())
			if err != nil {
				return err
			}
			store, err := openExclusions(cmd.Context(), cfg, replicator)
			if err != nil {
				return err
			}
			if err = store.Clear(cmd.Context()); err != nil {
				if !errors.Is(err, exclusion.ErrSync) {
					return err
				}
				cmd.PrintErrln("warning:", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), endpoint.ResetDone)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", os.Getenv("EXCLUSOR_SERVER"), "base URL of the running service (env EXCLUSOR_SERVER)")
	return cmd
}

func remoteReset(cmd *cobra.Command, serverURL, token string) error {
	if token == "" {
		return fmt.Errorf("server.adminToken (env %s) is required with --server", exclusor.EnvAdminToken)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(serverURL, "/")+"/admin/reset", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", serverURL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	return nil
}
