package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var receipts int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the contract, its campaigns and recent receipts",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()
			printSummary(out, bc)
			printCampaigns(out, bc)
			if receipts > 0 {
				return printReceipts(out, bc, receipts)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&receipts, "receipts", "r", 10, "number of recent receipts to show")
	return cmd
}

func printSummary(out io.Writer, bc *chain.Blockchain) {
	label := color.New(color.FgCyan).SprintFunc()
	c := bc.Contract()
	t := bc.Token()

	balance, _ := c.Balance()
	fmt.Fprintf(out, "%s %s\n", label("Token:     "), t.Address.Hex())
	fmt.Fprintf(out, "%s %s\n", label("Contract:  "), c.Address().Hex())
	fmt.Fprintf(out, "%s %s\n", label("Owner:     "), c.Owner().Hex())
	fmt.Fprintf(out, "%s %t\n", label("Demo:      "), c.Demo())
	fmt.Fprintf(out, "%s %s\n", label("Supply:    "), t.Format(t.TotalSupply()))
	fmt.Fprintf(out, "%s %s\n", label("Funds:     "), t.Format(balance))
	fmt.Fprintf(out, "%s %s per registrant\n", label("Reward:    "), t.Format(c.Reward()))
	fmt.Fprintf(out, "%s %s\n", label("Block:     "), humanize.Comma(int64(bc.BlockNumber())))
	fmt.Fprintf(out, "%s %d\n", label("Campaigns: "), c.CampaignCount())
}

func printCampaigns(out io.Writer, bc *chain.Blockchain) {
	campaigns := bc.Contract().Campaigns()
	if len(campaigns) == 0 {
		return
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tSTATE\tSEATS\tHOST\tTITLE")
	for _, d := range campaigns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%s\t%s\n", d.ID, d.Code, d.State, d.Registered, d.Capacity, d.Host.Hex(), d.Title)
	}
	w.Flush()
}

func printReceipts(out io.Writer, bc *chain.Blockchain, limit int) error {
	receipts, err := bc.Receipts(limit)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		return nil
	}
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(out)
	for _, r := range receipts {
		status := ok("ok")
		if !r.Succeeded() {
			status = failed("reverted: " + r.Error)
		}
		fmt.Fprintf(out, "#%d %s %s from %s (%s) %s\n",
			r.BlockNumber, r.Method, r.TxHash.Hex(), r.From.Hex(), humanize.Time(r.Timestamp), status)
	}
	return nil
}
