package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/exclusor/service/secret"
)

func newSecureCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "secure <destURL> <value>",
		Short: "Encrypt a secret (bot token, signing secret) with scy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.TrimSpace(args[1])
			if value == "" {
				return errors.New("value was empty")
			}
			if err := secret.New().Secure(cmd.Context(), value, args[0], key); err != nil {
				return err
			}
			cmd.Printf("stored %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", secret.DefaultKey, "scy encryption key")
	return cmd
}
