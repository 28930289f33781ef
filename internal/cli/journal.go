package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Op     string
	Verify bool
}

// JournalResult is the journal listing.
type JournalResult struct {
	Entries  []journal.Entry `json:"entries"`
	Verified bool            `json:"verified,omitempty"`
	Tampered []int64         `json:"tampered,omitempty"`
}

func (r JournalResult) Text() string {
	if len(r.Entries) == 0 {
		return "No journal entries."
	}
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%4d  t=%d  %-13s %s  %s\n", e.Seq, e.At, e.Op, shortKey(e.Caller), e.Result)
	}
	if r.Verified {
		if len(r.Tampered) == 0 {
			fmt.Fprintf(&b, "\nAll %d entries verified.", len(r.Entries))
		} else {
			fmt.Fprintf(&b, "\n%d entries failed verification: %v", len(r.Tampered), r.Tampered)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortKey(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List committed operations",
		Long: `List the journal of committed operations in sequence order.

Each entry's ID is the hash of its canonical form. With --verify the IDs are
recomputed and the command fails if any entry does not match.

Examples:
  presale journal
  presale journal --op purchase --after 10 --limit 20
  presale journal --verify --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only entries with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum entries to list (0 for all)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "only entries of this operation")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute entry IDs")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	// The op filter applies after the limit when both are set, so page
	// without a limit and cut afterwards.
	limit := opts.Limit
	if opts.Op != "" {
		limit = 0
	}
	entries, err := sess.engine.Journal(context.Background(), opts.After, limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	res := JournalResult{Entries: make([]journal.Entry, 0, len(entries))}
	for _, e := range entries {
		if opts.Op != "" && string(e.Op) != opts.Op {
			continue
		}
		res.Entries = append(res.Entries, e)
		if opts.Limit > 0 && len(res.Entries) == opts.Limit {
			break
		}
	}
	out.VerboseLog("read %d of %d entries after seq %d", len(res.Entries), len(entries), opts.After)

	if opts.Verify {
		res.Verified = true
		for i := range res.Entries {
			ok, err := journal.Verify(&res.Entries[i])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify entry %d", res.Entries[i].Seq), err)
			}
			if !ok {
				res.Tampered = append(res.Tampered, res.Entries[i].Seq)
			}
		}
	}

	if err := out.Success(res); err != nil {
		return err
	}
	if len(res.Tampered) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d journal entries failed verification", len(res.Tampered)))
	}
	return nil
}
