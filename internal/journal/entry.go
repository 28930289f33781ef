// Package journal defines the append-only record of committed presale
// operations.
//
// Each entry carries a content-addressed ID: the SHA-256 of its canonical
// JSON form under a versioned domain prefix. Replaying the same operations
// in the same order reproduces the same IDs, which makes journals from two
// runs directly comparable.
package journal

import (
	"encoding/json"
	"fmt"
)

// Op names a mutating presale operation.
type Op string

const (
	OpInitialize   Op = "initialize"
	OpPurchase     Op = "purchase"
	OpClaim        Op = "claim"
	OpPause        Op = "pause"
	OpUnpause      Op = "unpause"
	OpUpdateConfig Op = "update_config"
	OpBurnUnsold   Op = "burn_unsold"
	OpFund         Op = "fund"
)

// Entry is one committed operation.
type Entry struct {
	Seq       int64           `json:"seq"`
	ID        string          `json:"id"`
	RequestID string          `json:"request_id"`
	Op        Op              `json:"op"`
	Caller    string          `json:"caller"`
	Args      json.RawMessage `json:"args"`
	Result    json.RawMessage `json:"result"`
	At        int64           `json:"at"`
}

// New builds an unsealed entry. args and result are stored in canonical
// JSON form; nil is stored as an empty object.
func New(requestID string, op Op, caller string, args, result any, at int64) (*Entry, error) {
	if args == nil {
		args = struct{}{}
	}
	if result == nil {
		result = struct{}{}
	}
	a, err := MarshalCanonical(args)
	if err != nil {
		return nil, fmt.Errorf("journal %s args: %w", op, err)
	}
	r, err := MarshalCanonical(result)
	if err != nil {
		return nil, fmt.Errorf("journal %s result: %w", op, err)
	}
	return &Entry{
		RequestID: requestID,
		Op:        op,
		Caller:    caller,
		Args:      a,
		Result:    r,
		At:        at,
	}, nil
}

// Seal assigns the entry its sequence number and computes its ID.
//
// RequestID is excluded from the ID: it identifies who asked and when,
// while the ID identifies what happened.
func (e *Entry) Seal(seq int64) error {
	e.Seq = seq
	id, err := EntryID(e)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// EntryID computes the content-addressed ID of e from its sequence, op,
// caller, args, result and time.
func EntryID(e *Entry) (string, error) {
	obj := map[string]any{
		"seq":    e.Seq,
		"op":     string(e.Op),
		"caller": e.Caller,
		"args":   e.Args,
		"result": e.Result,
		"at":     e.At,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// Verify recomputes the ID of e and reports whether it matches.
func Verify(e *Entry) (bool, error) {
	id, err := EntryID(e)
	if err != nil {
		return false, err
	}
	return id == e.ID, nil
}
