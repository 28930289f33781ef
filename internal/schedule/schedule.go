// Package schedule reads and writes sale schedule documents.
//
// A schedule holds the parameters of initialize: the ten pricing phases,
// the supply and purchase limits, the launch time and the vesting
// percentages. Documents are CUE (or YAML, which CUE reads natively) and
// are unified with an embedded schema before they are decoded, so a
// malformed schedule is rejected with a source position.
package schedule

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

//go:embed schema.cue
var schemaSource string

// Phase is one phase as written in a schedule document.
type Phase struct {
	PriceNative     uint64 `json:"price_native"`
	PriceStable     uint64 `json:"price_stable"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	TokensAllocated uint64 `json:"tokens_allocated"`
}

// Vesting holds the unlock percentages.
type Vesting struct {
	LaunchPercent  uint8 `json:"launch_percent"`
	MonthlyPercent uint8 `json:"monthly_percent"`
}

// Document is a decoded schedule.
type Document struct {
	Phases                  []Phase `json:"phases"`
	TotalTokensForSale      uint64  `json:"total_tokens_for_sale"`
	MaxPerTransaction       uint64  `json:"max_per_transaction"`
	MaxPerWallet            uint64  `json:"max_per_wallet"`
	MinTimeBetweenPurchases int64   `json:"min_time_between_purchases"`
	LaunchTimestamp         int64   `json:"launch_timestamp"`
	Vesting                 Vesting `json:"vesting"`
}

// Error is a schedule that failed to parse or validate.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads and parses the schedule at path.
func LoadFile(path string) (*presale.InitParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return Parse(path, data)
}

// Parse validates a schedule document against the schema and converts it
// to initialize parameters. Files ending in .yaml, .yml or .json are read
// as YAML; anything else as CUE.
func Parse(filename string, data []byte) (*presale.InitParams, error) {
	doc, err := Decode(filename, data)
	if err != nil {
		return nil, err
	}
	return doc.Params()
}

// Decode validates a schedule document and decodes it without converting.
func Decode(filename string, data []byte) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schedule schema: %w", err)
	}

	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml", ".json":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	default:
		v = ctx.CompileBytes(data, cue.Filename(filename))
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Schedule")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}
	return &doc, nil
}

// Params converts the document to initialize parameters and applies the
// presale's own validation.
func (d *Document) Params() (*presale.InitParams, error) {
	if len(d.Phases) != presale.PhaseCount {
		return nil, &Error{
			Field:   "phases",
			Message: fmt.Sprintf("expected %d phases, got %d", presale.PhaseCount, len(d.Phases)),
		}
	}
	p := &presale.InitParams{
		TotalTokensForSale:      d.TotalTokensForSale,
		MaxPerTransaction:       d.MaxPerTransaction,
		MaxPerWallet:            d.MaxPerWallet,
		MinTimeBetweenPurchases: d.MinTimeBetweenPurchases,
		LaunchTimestamp:         d.LaunchTimestamp,
		VestingLaunchPercent:    d.Vesting.LaunchPercent,
		VestingMonthlyPercent:   d.Vesting.MonthlyPercent,
	}
	for i, ph := range d.Phases {
		p.Phases[i] = presale.Phase{
			PriceNative:     ph.PriceNative,
			PriceStable:     ph.PriceStable,
			StartTime:       ph.StartTime,
			EndTime:         ph.EndTime,
			TokensAllocated: ph.TokensAllocated,
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromParams builds the document form of p.
func FromParams(p *presale.InitParams) *Document {
	d := &Document{
		Phases:                  make([]Phase, len(p.Phases)),
		TotalTokensForSale:      p.TotalTokensForSale,
		MaxPerTransaction:       p.MaxPerTransaction,
		MaxPerWallet:            p.MaxPerWallet,
		MinTimeBetweenPurchases: p.MinTimeBetweenPurchases,
		LaunchTimestamp:         p.LaunchTimestamp,
		Vesting: Vesting{
			LaunchPercent:  p.VestingLaunchPercent,
			MonthlyPercent: p.VestingMonthlyPercent,
		},
	}
	for i, ph := range p.Phases {
		d.Phases[i] = Phase{
			PriceNative:     ph.PriceNative,
			PriceStable:     ph.PriceStable,
			StartTime:       ph.StartTime,
			EndTime:         ph.EndTime,
			TokensAllocated: ph.TokensAllocated,
		}
	}
	return d
}

// Format renders p as a CUE schedule document that Parse accepts.
func Format(p *presale.InitParams) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.Encode(FromParams(p))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	out, err := format.Node(v.Syntax())
	if err != nil {
		return nil, fmt.Errorf("format schedule: %w", err)
	}
	return out, nil
}

// Example returns a schedule of ten consecutive phases of phaseLength
// seconds starting at start, with launch one day after the last phase.
// It is the template printed by the CLI.
func Example(start, phaseLength int64) *presale.InitParams {
	p := &presale.InitParams{
		TotalTokensForSale:      30_000_000_000_000_000,
		MaxPerTransaction:       1_000_000_000_000_000,
		MaxPerWallet:            5_000_000_000_000_000,
		MinTimeBetweenPurchases: 60,
		LaunchTimestamp:         start + presale.PhaseCount*phaseLength + 24*60*60,
		VestingLaunchPercent:    40,
		VestingMonthlyPercent:   30,
	}
	for i := range p.Phases {
		p.Phases[i] = presale.Phase{
			PriceNative:     uint64(5 + i),
			PriceStable:     uint64(1_000 + 250*i),
			StartTime:       start + int64(i)*phaseLength,
			EndTime:         start + int64(i+1)*phaseLength,
			TokensAllocated: 3_000_000_000_000_000,
		}
	}
	return p
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &Error{
			Field:   strings.Join(first.Path(), "."),
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &Error{Field: strings.Join(first.Path(), "."), Message: first.Error()}
}
