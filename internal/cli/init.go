package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/schedule"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Schedule    string
	Keypair     string
	TokenMint   string
	PaymentMint string
	Treasury    string
}

type configOutput struct {
	*presale.Config
}

func (o configOutput) Text() string {
	return fmt.Sprintf(
		"Authority:        %s\nToken mint:       %s\nPayment mint:     %s\nTreasury:         %s\n"+
			"Total for sale:   %d\nTokens sold:      %d\nMax per tx:       %d\nMax per wallet:   %d\n"+
			"Min interval:     %ds\nLaunch:           %d\nVesting:          %d%% at launch + %d%%/month\nPaused:           %t",
		o.Authority, o.TokenMint, o.PaymentMint, o.Treasury,
		o.TotalTokensForSale, o.TokensSold, o.MaxPerTransaction, o.MaxPerWallet,
		o.MinTimeBetweenPurchases, o.LaunchTimestamp,
		o.VestingLaunchPercent, o.VestingMonthlyPercent, o.IsPaused,
	)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the presale",
		Long: `Create the presale configuration from a schedule document.

The signer of --keypair becomes the presale authority. The treasury must be
a token account of --token-mint owned by the presale config address (see
"presale addresses" and "presale fund --treasury"). Initialize succeeds only
once per program instance.

Example:
  presale init --schedule sale.cue --keypair authority.json \
    --token-mint <mint> --payment-mint <usdc-mint> --treasury <account>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "schedule document (.cue or .yaml)")
	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "authority keypair file")
	cmd.Flags().StringVar(&opts.TokenMint, "token-mint", "", "mint of the token on sale")
	cmd.Flags().StringVar(&opts.PaymentMint, "payment-mint", "", "mint of the stable payment token")
	cmd.Flags().StringVar(&opts.Treasury, "treasury", "", "token account holding the sale supply")
	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("keypair")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	params, err := schedule.LoadFile(opts.Schedule)
	if err != nil {
		if presale.IsPresaleError(err) {
			return out.Rejected("init", err)
		}
		return WrapExitError(ExitCommandError, "invalid schedule", err)
	}
	key, err := loadKeypair(opts.Keypair)
	if err != nil {
		return err
	}
	tokenMint, err := parseKey("token-mint", opts.TokenMint)
	if err != nil {
		return err
	}
	paymentMint, err := parseKey("payment-mint", opts.PaymentMint)
	if err != nil {
		return err
	}
	treasury, err := parseKey("treasury", opts.Treasury)
	if err != nil {
		return err
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg, err := sess.engine.Initialize(context.Background(), key.PublicKey(), engine.InitRequest{
		Params:      params,
		TokenMint:   tokenMint,
		PaymentMint: paymentMint,
		Treasury:    treasury,
	})
	if err != nil {
		return out.Rejected("init", err)
	}
	return out.Success(configOutput{cfg})
}
