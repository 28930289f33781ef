package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/pda"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Wallet string
}

type presaleStatusOutput struct {
	*engine.PresaleStatus
}

func (o presaleStatusOutput) Text() string {
	var b strings.Builder
	phase := "none"
	if o.CurrentPhase != nil {
		phase = fmt.Sprintf("%d", *o.CurrentPhase)
	}
	fmt.Fprintf(&b, "Current phase:    %s\n", phase)
	fmt.Fprintf(&b, "Paused:           %t\n", o.Config.IsPaused)
	fmt.Fprintf(&b, "Sold:             %d of %d (burned %d, unsold %d)\n",
		o.Config.TokensSold, o.Config.TotalTokensForSale, o.Config.TokensBurned, o.Unsold)
	fmt.Fprintf(&b, "Token supply:     %d\n", o.TokenSupply)
	fmt.Fprintf(&b, "Sales end:        %d\n", o.SalesEnd)
	fmt.Fprintf(&b, "Launch:           %d (vested %d%%)\n", o.Config.LaunchTimestamp, o.VestedPercent)
	b.WriteString("\nPhases:\n")
	for i, p := range o.Config.Phases {
		marker := " "
		if o.CurrentPhase != nil && *o.CurrentPhase == i {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d  [%d, %d)  native %d  stable %d  sold %d/%d\n",
			marker, i, p.StartTime, p.EndTime, p.PriceNative, p.PriceStable, p.TokensSold, p.TokensAllocated)
	}
	return strings.TrimRight(b.String(), "\n")
}

type purchaseStatusOutput struct {
	*engine.PurchaseStatus
}

func (o purchaseStatusOutput) Text() string {
	r := o.Record
	return fmt.Sprintf(
		"Wallet:           %s\nPurchased:        %d\nSpent native:     %d\nSpent stable:     %d\n"+
			"Last purchase:    %d\nVested:           %d (%d%%)\nClaimed:          %d\nClaimable:        %d\nRemaining cap:    %d",
		o.Wallet, r.TotalPurchased, r.TotalSpentNative, r.TotalSpentStable,
		r.LastPurchaseTime, o.Vested, o.VestedPercent, r.ClaimedAmount, o.Claimable, o.RemainingAllocation,
	)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sale or a wallet's position",
		Long: `Show the sale configuration and phase progress, or with --wallet the
purchase record, vested and claimable amounts of one wallet. Status never
changes state.

Examples:
  presale status
  presale status --wallet <pubkey> --at 1767225600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "wallet public key")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctx := context.Background()

	if opts.Wallet == "" {
		st, err := sess.engine.PresaleStatus(ctx)
		if err != nil {
			return out.Rejected("status", err)
		}
		return out.Success(presaleStatusOutput{st})
	}

	key, err := parseKey("wallet", opts.Wallet)
	if err != nil {
		return err
	}
	st, err := sess.engine.PurchaseStatus(ctx, key)
	if err != nil {
		return out.Rejected("status", err)
	}
	return out.Success(purchaseStatusOutput{st})
}

// AddressesOptions holds flags for the addresses command.
type AddressesOptions struct {
	*RootOptions
	TokenMint string
}

// addressesOutput lists the derived addresses of the program.
type addressesOutput struct {
	*pda.Addresses
	Treasury string `json:"treasury,omitempty"`
}

func (o addressesOutput) Text() string {
	s := fmt.Sprintf("Program:          %s\nConfig:           %s (bump %d)\nNative vault:     %s (bump %d)\nStable vault:     %s (bump %d)",
		o.Program, o.Config.Key, o.Config.Bump,
		o.NativeVault.Key, o.NativeVault.Bump,
		o.StableVault.Key, o.StableVault.Bump)
	if o.Treasury != "" {
		s += "\nTreasury:         " + o.Treasury
	}
	return s
}

// NewAddressesCommand creates the addresses command.
func NewAddressesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddressesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Print the program's derived addresses",
		Long: `Print the config and vault addresses derived from the program ID. With
--token-mint, also print the treasury account init expects for that mint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			programID, err := parseKey("program", opts.ProgramID)
			if err != nil {
				return err
			}
			addrs, err := pda.Derive(programID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to derive addresses", err)
			}
			res := addressesOutput{Addresses: addrs}
			if opts.TokenMint != "" {
				mint, err := parseKey("token-mint", opts.TokenMint)
				if err != nil {
					return err
				}
				treasury, err := pda.TokenAccount(addrs.Config.Key, mint)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to derive treasury", err)
				}
				res.Treasury = treasury.String()
			}
			return out.Success(res)
		},
	}

	cmd.Flags().StringVar(&opts.TokenMint, "token-mint", "", "sale token mint")

	return cmd
}
