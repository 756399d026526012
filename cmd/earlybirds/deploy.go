package main

import (
	"errors"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDeployCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the token and the contract into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			_, err = store.LoadState()
			fresh := errors.Is(err, storage.ErrNotFound)
			if err != nil && !fresh {
				store.Close()
				return err
			}

			bc, err := a.openChain(store)
			if err != nil {
				store.Close()
				return err
			}
			defer bc.Close()

			out := cmd.OutOrStdout()
			if fresh {
				color.New(color.FgGreen, color.Bold).Fprintln(out, "Deployed Wormies and EarlyBirds")
			} else {
				color.New(color.FgYellow).Fprintln(out, "Chain already deployed, nothing to do")
			}
			printSummary(out, bc)
			return nil
		},
	}
}
