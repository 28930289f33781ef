package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

// PurchaseOptions holds flags for the purchase command.
type PurchaseOptions struct {
	*RootOptions
	Keypair  string
	Quantity uint64
	Currency string
}

type purchaseOutput struct {
	*presale.PurchaseReceipt
}

func (o purchaseOutput) Text() string {
	return fmt.Sprintf("Bought %d tokens in phase %d for %d (%s, unit price %d).\nWallet total: %d",
		o.Quantity, o.Phase, o.Cost, o.Currency, o.UnitPrice, o.TotalPurchased)
}

// NewPurchaseCommand creates the purchase command.
func NewPurchaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurchaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Buy tokens in the active phase",
		Long: `Buy tokens at the active phase price, paying in the native coin or the
stable token. The signer of --keypair is the buyer.

Examples:
  presale purchase --keypair alice.json --quantity 1000 --currency native
  presale purchase --keypair alice.json --quantity 1000 --currency usdc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurchase(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "buyer keypair file")
	cmd.Flags().Uint64Var(&opts.Quantity, "quantity", 0, "token quantity in base units")
	cmd.Flags().StringVar(&opts.Currency, "currency", "native", "payment currency (native|sol|stable|usdc)")
	_ = cmd.MarkFlagRequired("keypair")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func runPurchase(opts *PurchaseOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	currency, err := presale.ParseCurrency(opts.Currency)
	if err != nil {
		return out.Rejected("purchase", err)
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

	receipt, err := sess.engine.Purchase(context.Background(), key.PublicKey(), opts.Quantity, currency)
	if err != nil {
		return out.Rejected("purchase", err)
	}
	return out.Success(purchaseOutput{receipt})
}

// ClaimOptions holds flags for the claim command.
type ClaimOptions struct {
	*RootOptions
	Keypair string
}

type claimOutput struct {
	*presale.ClaimReceipt
}

func (o claimOutput) Text() string {
	return fmt.Sprintf("Claimed %d tokens (%d%% vested, %d claimed of %d vested).",
		o.Amount, o.VestedPercent, o.ClaimedTotal, o.Vested)
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClaimOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim vested tokens",
		Long: `Transfer every vested, unclaimed token of the signer from the treasury to
the signer's token account. Claims are available after launch and are not
affected by pause.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Keypair, "keypair", "", "buyer keypair file")
	_ = cmd.MarkFlagRequired("keypair")

	return cmd
}

func runClaim(opts *ClaimOptions, cmd *cobra.Command) error {
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

	receipt, err := sess.engine.ClaimVested(context.Background(), key.PublicKey())
	if err != nil {
		return out.Rejected("claim", err)
	}
	return out.Success(claimOutput{receipt})
}
