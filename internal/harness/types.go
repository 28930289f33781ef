package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// OutcomeOK is the outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent is one executed step.
type TraceEvent struct {
	Step    int            `json:"step"`
	Op      string         `json:"op"`
	As      string         `json:"as"`
	At      int64          `json:"at"`
	Args    map[string]any `json:"args,omitempty"`
	Outcome string         `json:"outcome"` // OutcomeOK or an error code
	Result  map[string]any `json:"result,omitempty"`
}

// String renders the event as one trace line.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d t=%d %s %s", e.Step, e.At, e.As, e.Op)
	if len(e.Args) > 0 {
		b.WriteString(" ")
		b.WriteString(renderFields(e.Args))
	}
	b.WriteString(" -> ")
	b.WriteString(e.Outcome)
	if len(e.Result) > 0 {
		b.WriteString(" ")
		b.WriteString(renderFields(e.Result))
	}
	return b.String()
}

func renderFields(m map[string]any) string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step matched its expectation, every
	// assertion held and no invariant was violated.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Render returns the trace of a scenario as text, one line per step.
func (r *Result) Render(name string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteString("\n")
	}
	return []byte(b.String())
}
