package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a presale test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Schedule is the path of the schedule document initialize uses,
	// relative to the scenario file. Empty means DefaultSchedule.
	Schedule string `yaml:"schedule,omitempty"`

	Setup Setup `yaml:"setup,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Setup funds the world before the first step. Setup is not traced.
type Setup struct {
	// Treasury is the amount of sale tokens minted into the treasury.
	// Zero means the schedule's total_tokens_for_sale.
	Treasury uint64 `yaml:"treasury,omitempty"`

	Wallets map[string]Funding `yaml:"wallets,omitempty"`
}

// Funding is the starting balance of one wallet.
type Funding struct {
	Native uint64 `yaml:"native,omitempty"`
	Stable uint64 `yaml:"stable,omitempty"`
}

// Step is one operation at a ledger time.
type Step struct {
	Op     string         `yaml:"op"`
	As     string         `yaml:"as"`
	At     int64          `yaml:"at"`
	Args   map[string]any `yaml:"args,omitempty"`
	Expect *Expect        `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Error is the presale error code the step must fail with.
	Error string `yaml:"error,omitempty"`

	// Result is a subset match on the step's result.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op and As select steps (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`
	As string `yaml:"as,omitempty"`

	// Outcome narrows trace_contains and trace_count to steps with this
	// outcome ("ok" or an error code).
	Outcome string `yaml:"outcome,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of matching steps (trace_count).
	Count int `yaml:"count,omitempty"`

	// Account is "config" or "purchase" (final_state).
	Account string `yaml:"account,omitempty"`

	// Wallet is an alias, or one of native_vault, stable_vault and
	// treasury for balance.
	Wallet string `yaml:"wallet,omitempty"`

	// Expect is a subset match on the account (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Asset is native, token or stable (balance).
	Asset string `yaml:"asset,omitempty"`

	// Amount is the expected balance (balance).
	Amount uint64 `yaml:"amount,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertBalance       = "balance"
)

// Operation names accepted in steps.
const (
	OpInitialize   = "initialize"
	OpPurchase     = "purchase"
	OpClaim        = "claim"
	OpPause        = "pause"
	OpUnpause      = "unpause"
	OpUpdateConfig = "update_config"
	OpBurnUnsold   = "burn_unsold"
	OpAirdrop      = "airdrop"
)

var knownOps = map[string]bool{
	OpInitialize:   true,
	OpPurchase:     true,
	OpClaim:        true,
	OpPause:        true,
	OpUnpause:      true,
	OpUpdateConfig: true,
	OpBurnUnsold:   true,
	OpAirdrop:      true,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected and the schedule path is resolved relative
// to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Schedule != "" && !filepath.IsAbs(scenario.Schedule) {
		scenario.Schedule = filepath.Join(filepath.Dir(path), scenario.Schedule)
	}
	if scenario.Schedule != "" {
		if _, err := os.Stat(scenario.Schedule); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: schedule file not found: %s", scenario.Schedule)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
			return fmt.Errorf("steps[%d].expect: error and result are mutually exclusive", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		switch a.Account {
		case "config":
		case "purchase":
			if a.Wallet == "" {
				return fmt.Errorf("assertions[%d]: wallet is required for final_state of a purchase", index)
			}
		default:
			return fmt.Errorf("assertions[%d]: account must be config or purchase, got %q", index, a.Account)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertBalance:
		if a.Wallet == "" {
			return fmt.Errorf("assertions[%d]: wallet is required for balance", index)
		}
		switch a.Asset {
		case "native", "token", "stable":
		default:
			return fmt.Errorf("assertions[%d]: asset must be native, token or stable, got %q", index, a.Asset)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
