package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/engine"
)

// FundOptions holds flags for the fund command.
type FundOptions struct {
	*RootOptions
	Wallet   string
	Lamports uint64
	Mint     string
	Amount   uint64
	Treasury bool
}

type fundOutput struct {
	Funded []*engine.FundResult `json:"funded"`
}

func (o fundOutput) Text() string {
	s := ""
	for i, f := range o.Funded {
		if i > 0 {
			s += "\n"
		}
		asset := "lamports"
		if f.Mint != nil {
			asset = "tokens of " + f.Mint.String()
		}
		s += fmt.Sprintf("Credited %d %s to %s (balance %d)", f.Amount, asset, f.Account, f.Balance)
	}
	return s
}

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FundOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit lamports or tokens on the local ledger",
		Long: `Credit balances on the local ledger so wallets can buy and the sale can
be initialized. This stands in for the outside world and is not an
authority operation.

Examples:
  presale fund --wallet <pubkey> --lamports 5000000000
  presale fund --wallet <pubkey> --mint <usdc-mint> --amount 1000000
  presale fund --treasury --mint <token-mint> --amount 30000000000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFund(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "wallet public key to credit")
	cmd.Flags().Uint64Var(&opts.Lamports, "lamports", 0, "lamports to airdrop to --wallet")
	cmd.Flags().StringVar(&opts.Mint, "mint", "", "token mint to issue")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "tokens of --mint to issue")
	cmd.Flags().BoolVar(&opts.Treasury, "treasury", false, "issue --amount of --mint into the sale treasury")

	return cmd
}

func runFund(opts *FundOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	if opts.Treasury && opts.Wallet != "" {
		return NewExitError(ExitCommandError, "--treasury and --wallet are mutually exclusive")
	}
	if !opts.Treasury && opts.Wallet == "" {
		return NewExitError(ExitCommandError, "one of --wallet or --treasury is required")
	}
	if opts.Treasury && opts.Lamports > 0 {
		return NewExitError(ExitCommandError, "--lamports cannot be sent to the treasury")
	}
	if opts.Lamports == 0 && opts.Amount == 0 {
		return NewExitError(ExitCommandError, "nothing to fund: pass --lamports or --amount")
	}
	if opts.Amount > 0 && opts.Mint == "" {
		return NewExitError(ExitCommandError, "--amount requires --mint")
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := context.Background()

	var res fundOutput
	if opts.Treasury {
		mint, err := parseKey("mint", opts.Mint)
		if err != nil {
			return err
		}
		f, err := sess.engine.CreateTreasury(ctx, mint, opts.Amount)
		if err != nil {
			return out.Rejected("fund", err)
		}
		res.Funded = append(res.Funded, f)
		return out.Success(res)
	}

	wallet, err := parseKey("wallet", opts.Wallet)
	if err != nil {
		return err
	}
	if opts.Lamports > 0 {
		f, err := sess.engine.Airdrop(ctx, wallet, opts.Lamports)
		if err != nil {
			return out.Rejected("fund", err)
		}
		res.Funded = append(res.Funded, f)
	}
	if opts.Amount > 0 {
		mint, err := parseKey("mint", opts.Mint)
		if err != nil {
			return err
		}
		f, err := sess.engine.MintTokens(ctx, mint, wallet, opts.Amount)
		if err != nil {
			return out.Rejected("fund", err)
		}
		res.Funded = append(res.Funded, f)
	}
	return out.Success(res)
}
