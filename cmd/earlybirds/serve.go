package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/api"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the receipt stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.ListenAddr = listen
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			bc, err := a.openChain(store)
			if err != nil {
				store.Close()
				return err
			}
			defer bc.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printSummary(cmd.OutOrStdout(), bc)
			return api.NewServer(bc, a.cfg.AllowedOrigins, a.logger).Run(ctx, a.cfg.ListenAddr)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
