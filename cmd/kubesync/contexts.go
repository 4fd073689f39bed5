package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapcraft-io/kubesync/internal/config"
	"github.com/tapcraft-io/kubesync/internal/k8s"
)

// newContextsCmd lists the kubeconfig contexts and marks the current one.
func newContextsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List the contexts of the kubeconfig",
		RunE: func(cmd *cobra.Command, args []string) error {
			contexts, err := k8s.GetContexts(cfg.KubeconfigPath)
			if err != nil {
				return fmt.Errorf("failed to read kubeconfig: %w", err)
			}
			current := cfg.Context
			if current == "" {
				current, _ = k8s.GetCurrentContext(cfg.KubeconfigPath)
			}
			for _, name := range contexts {
				marker := " "
				if name == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
