package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/schedule"
)

// ScheduleOptions holds flags for the schedule example command.
type ScheduleOptions struct {
	*RootOptions
	Start       int64
	PhaseLength int64
}

// ValidationResult holds schedule validation results.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	File    string `json:"file"`
	Phases  int    `json:"phases,omitempty"`
	Total   uint64 `json:"total_tokens_for_sale,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message,omitempty"`
}

func (r ValidationResult) Text() string {
	if r.Valid {
		return fmt.Sprintf("✓ %s: %d phases, %d tokens for sale", r.File, r.Phases, r.Total)
	}
	loc := r.File
	if r.Line > 0 {
		loc = fmt.Sprintf("%s:%d", r.File, r.Line)
	}
	switch {
	case r.Code != "":
		return fmt.Sprintf("✗ %s: [%s] %s", loc, r.Code, r.Message)
	case r.Field != "":
		return fmt.Sprintf("✗ %s: %s: %s", loc, r.Field, r.Message)
	}
	return fmt.Sprintf("✗ %s: %s", loc, r.Message)
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Write and check sale schedules",
		Long: `Sale schedules are CUE (or YAML/JSON) documents holding the ten phases,
the supply and purchase limits, the launch time and the vesting rates. init
reads one with --schedule.`,
	}

	cmd.AddCommand(newScheduleExampleCommand(rootOpts))
	cmd.AddCommand(newScheduleValidateCommand(rootOpts))

	return cmd
}

func newScheduleExampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Print an example schedule",
		Long: `Print a schedule of ten back-to-back phases starting at --start, each
--phase-length seconds long, with launch one day after the last phase.

Examples:
  presale schedule example --start 1767225600 > schedule.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.PhaseLength <= 0 {
				return NewExitError(ExitCommandError, "--phase-length must be positive")
			}
			params := schedule.Example(opts.Start, opts.PhaseLength)
			if opts.Format == "json" {
				return formatter(opts.RootOptions, cmd).Success(schedule.FromParams(params))
			}
			src, err := schedule.Format(params)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to format schedule", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(src))
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.Start, "start", 1_767_225_600, "start of phase 0 in unix seconds")
	cmd.Flags().Int64Var(&opts.PhaseLength, "phase-length", 30*24*60*60, "length of each phase in seconds")

	return cmd
}

func newScheduleValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a schedule file",
		Long: `Check a schedule against the schema and the presale's initialize rules
without touching the ledger. Exits 1 when the schedule is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleValidate(rootOpts, args[0], cmd)
		},
	}
}

func runScheduleValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	params, err := schedule.LoadFile(path)
	if err == nil {
		return out.Success(ValidationResult{
			Valid:  true,
			File:   path,
			Phases: len(params.Phases),
			Total:  params.TotalTokensForSale,
		})
	}

	res := ValidationResult{File: path, Message: err.Error()}
	var serr *schedule.Error
	var perr *presale.Error
	switch {
	case errors.As(err, &serr):
		res.Field = serr.Field
		res.Message = serr.Message
		if serr.Pos.IsValid() {
			res.File = serr.Pos.Filename()
			res.Line = serr.Pos.Line()
		}
	case errors.As(err, &perr):
		res.Code = string(perr.Code)
		res.Message = perr.Message
	default:
		return WrapExitError(ExitCommandError, "failed to read schedule", err)
	}

	if err := out.Success(res); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "invalid schedule")
}
