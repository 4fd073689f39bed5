package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapcraft-io/kubesync/internal/config"
)

// newVersionCmd prints the client version and, with --server, the version of
// the API server kubesync talks to.
func newVersionCmd(cfg *config.Config) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kubesync",
		Long:  `All software has versions. This is kubesync's.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "kubesync version %s\n", cmd.Root().Version)
			if !server {
				return nil
			}

			client, err := connect(cfg)
			if err != nil {
				return err
			}
			v, err := client.ServerVersion()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "server version %s (context %s)\n", v, client.Context)
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "also print the API server version")
	return cmd
}
