package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Database  string
	ProgramID string
	EnvFile   string
	At        int64 // ledger time override; 0 means wall clock

	// Config is loaded in PersistentPreRunE; flags override its values.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the presale CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "presale",
		Short: "Velirion token presale",
		Long: `Operate a phased token presale: initialize the sale schedule, buy with
the native coin or the stable token, claim vested tokens after launch, and
administer limits and the pause switch.

Settings are read from PRESALE_* environment variables and an optional .env
file; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			var envFiles []string
			if opts.EnvFile != "" {
				envFiles = []string{opts.EnvFile}
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if opts.Database == "" {
				opts.Database = cfg.DBPath
			}
			if opts.ProgramID == "" {
				opts.ProgramID = cfg.ProgramID
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PRESALE_DB_PATH or ./presale.db)")
	cmd.PersistentFlags().StringVar(&opts.ProgramID, "program", "", "program ID (default $PRESALE_PROGRAM_ID)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load (default .env)")
	cmd.PersistentFlags().Int64Var(&opts.At, "at", 0, "ledger time in unix seconds (default wall clock)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewPurchaseCommand(opts))
	cmd.AddCommand(NewClaimCommand(opts))
	cmd.AddCommand(NewPauseCommand(opts))
	cmd.AddCommand(NewUnpauseCommand(opts))
	cmd.AddCommand(NewUpdateConfigCommand(opts))
	cmd.AddCommand(NewBurnCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewAddressesCommand(opts))
	cmd.AddCommand(NewFundCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
