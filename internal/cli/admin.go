package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/presale"
)

// AdminOptions holds flags shared by authority-only commands.
type AdminOptions struct {
	*RootOptions
	Keypair string
}

type pauseOutput struct {
	*engine.PauseResult
}

func (o pauseOutput) Text() string {
	state := "running"
	if o.Paused {
		state = "paused"
	}
	if !o.Changed {
		return fmt.Sprintf("Presale already %s.", state)
	}
	return fmt.Sprintf("Presale %s.", state)
}

// NewPauseCommand creates the pause command.
func NewPauseCommand(rootOpts *RootOptions) *cobra.Command {
	return newPauseCommand(rootOpts, "pause", "Stop new purchases (authority only)", true)
}

// NewUnpauseCommand creates the unpause command.
func NewUnpauseCommand(rootOpts *RootOptions) *cobra.Command {
	return newPauseCommand(rootOpts, "unpause", "Resume purchases (authority only)", false)
}

func newPauseCommand(rootOpts *RootOptions, use, short string, paused bool) *cobra.Command {
	opts := &AdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			key, err := loadKeypair(opts.Keypair)
			if err != nil {
				return err
			}
			sess, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			var res *engine.PauseResult
			if paused {
				res, err = sess.engine.Pause(context.Background(), key.PublicKey())
			} else {
				res, err = sess.engine.Unpause(context.Background(), key.PublicKey())
			}
			if err != nil {
				return out.Rejected(use, err)
			}
			return out.Success(pauseOutput{res})
		},
	}

	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "authority keypair file")
	_ = cmd.MarkFlagRequired("keypair")

	return cmd
}

// UpdateConfigOptions holds flags for the update-config command.
type UpdateConfigOptions struct {
	AdminOptions
	MaxPerTx     uint64
	MaxPerWallet uint64
	MinInterval  int64
}

// NewUpdateConfigCommand creates the update-config command.
func NewUpdateConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateConfigOptions{AdminOptions: AdminOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "update-config",
		Short: "Change purchase limits (authority only)",
		Long: `Overwrite the purchase limits that are given on the command line; limits
that are not given keep their current values.

Example:
  presale update-config --keypair authority.json --max-per-wallet 2000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateConfig(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "authority keypair file")
	cmd.Flags().Uint64Var(&opts.MaxPerTx, "max-per-tx", 0, "maximum tokens per purchase")
	cmd.Flags().Uint64Var(&opts.MaxPerWallet, "max-per-wallet", 0, "maximum tokens per wallet")
	cmd.Flags().Int64Var(&opts.MinInterval, "min-interval", 0, "minimum seconds between purchases")
	_ = cmd.MarkFlagRequired("keypair")

	return cmd
}

func runUpdateConfig(opts *UpdateConfigOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	var u presale.ConfigUpdate
	if cmd.Flags().Changed("max-per-tx") {
		u.MaxPerTransaction = &opts.MaxPerTx
	}
	if cmd.Flags().Changed("max-per-wallet") {
		u.MaxPerWallet = &opts.MaxPerWallet
	}
	if cmd.Flags().Changed("min-interval") {
		u.MinTimeBetweenPurchases = &opts.MinInterval
	}
	if u.Empty() {
		return NewExitError(ExitCommandError, "nothing to update: pass --max-per-tx, --max-per-wallet or --min-interval")
	}

	key, err := loadKeypair(opts.Keypair)
	if err != nil {
		return err
	}
	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg, err := sess.engine.UpdateConfig(context.Background(), key.PublicKey(), u)
	if err != nil {
		return out.Rejected("update-config", err)
	}
	return out.Success(configOutput{cfg})
}

type burnOutput struct {
	*engine.BurnReceipt
}

func (o burnOutput) Text() string {
	return fmt.Sprintf("Burned %d unsold tokens (total burned %d).", o.Amount, o.TokensBurned)
}

// NewBurnCommand creates the burn command.
func NewBurnCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn unsold supply after the sale (authority only)",
		Long: `Destroy the part of the sale supply that was neither sold nor burned
before. Only available once the last phase has ended; sold tokens stay in the
treasury for vesting claims.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			key, err := loadKeypair(opts.Keypair)
			if err != nil {
				return err
			}
			sess, err := openSession(opts.RootOptions, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			receipt, err := sess.engine.BurnUnsold(context.Background(), key.PublicKey())
			if err != nil {
				return out.Rejected("burn", err)
			}
			return out.Success(burnOutput{receipt})
		},
	}

	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "authority keypair file")
	_ = cmd.MarkFlagRequired("keypair")

	return cmd
}
