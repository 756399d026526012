// Command earlybirds runs the EarlyBirds campaign node.
package main

import (
	"fmt"
	"os"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/config"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/txlog"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	cfgFile  string
	backend  string
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "earlybirds",
		Short:         "EarlyBirds campaign node",
		Long:          "Runs the Wormies token and the EarlyBirds campaign contract behind an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.StringVar(&a.backend, "storage", "", "storage backend: bolt, leveldb or memory")
	flags.StringVar(&a.dbPath, "db", "", "database path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level")

	root.AddCommand(newServeCmd(a), newDeployCmd(a), newInspectCmd(a))
	return root
}

// load resolves configuration. Flags win over file and environment.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.StorageBackend = a.backend
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger()
	a.logger.SetOutput(cmd.ErrOrStderr())
	return nil
}

func (a *app) openStore() (storage.Store, error) {
	return storage.Open(a.cfg.StorageBackend, a.cfg.DatabasePath, a.logger)
}

func (a *app) openChain(store storage.Store) (*chain.Blockchain, error) {
	var journal *txlog.Journal
	if a.cfg.JournalPath != "" {
		j, err := txlog.NewJournal(txlog.Config{
			Path:       a.cfg.JournalPath,
			MaxSizeMB:  a.cfg.JournalMaxSizeMB,
			MaxBackups: a.cfg.JournalMaxBackups,
			MaxAgeDays: a.cfg.JournalMaxAgeDays,
			Compress:   a.cfg.JournalCompress,
		})
		if err != nil {
			return nil, err
		}
		journal = j
	}

	bc, err := chain.New(chain.Options{
		Owner:   a.cfg.OwnerAddress(),
		Supply:  a.cfg.SupplyWei(),
		Funding: a.cfg.FundingWei(),
		Reward:  a.cfg.RewardWei(),
		Store:   store,
		Journal: journal,
		Logger:  a.logger,
	})
	if err != nil {
		if journal != nil {
			journal.Close()
		}
		return nil, fmt.Errorf("open chain: %w", err)
	}
	return bc, nil
}
