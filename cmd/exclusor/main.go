// Command exclusor serves the exclude-cluster approval workflow and offers
// maintenance commands over its stores.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/exclusor"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configURL string
	root := &cobra.Command{
		Use:          "exclusor",
		Short:        "Exclude-cluster approval service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configURL, "config", "c", os.Getenv("EXCLUSOR_CONFIG"), "config document URL (env EXCLUSOR_CONFIG)")
	load := func(ctx context.Context) (*exclusor.Config, error) {
		return exclusor.LoadConfig(ctx, configURL)
	}
	root.AddCommand(
		newServeCmd(load),
		newListCmd(load),
		newPendingCmd(load),
		newResetCmd(load),
		newSecureCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Printf("exclusor version %s\n", version)
			},
		},
	)
	return root
}

type configLoader func(ctx context.Context) (*exclusor.Config, error)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
