package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/rustsol114/velirion-presale/internal/events"
	"github.com/rustsol114/velirion-presale/internal/journal"
	"github.com/rustsol114/velirion-presale/internal/pda"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// Engine executes presale operations against the ledger store.
//
// Each mutating call is one store transaction. State is loaded fresh
// inside the transaction, every rule is checked, funds move, records and
// a journal entry are written, and the whole batch commits or none of it
// does. No state is cached between calls.
//
// Thread-safety: Engine is safe for concurrent use. The store serialises
// transactions, so two calls for the same buyer observe each other's
// committed results.
type Engine struct {
	store     *store.Store
	addrs     *pda.Addresses
	clock     Clock
	ids       RequestIDGenerator
	logger    *slog.Logger
	publisher events.Publisher
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the ledger time source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPublisher sets where committed operations are published.
// Default: events.Nop.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithRequestIDGenerator sets the request ID source. Default: UUIDv7Generator.
func WithRequestIDGenerator(g RequestIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// New creates an Engine for the program instance programID.
func New(s *store.Store, programID solana.PublicKey, opts ...Option) (*Engine, error) {
	addrs, err := pda.Derive(programID)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		store:     s,
		addrs:     addrs,
		clock:     SystemClock{},
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Addresses returns the derived addresses of the program instance.
func (e *Engine) Addresses() *pda.Addresses {
	return e.addrs
}

// Now returns the engine's current ledger time.
func (e *Engine) Now() int64 {
	return e.clock.Now()
}

// opFunc does the work of one operation inside its transaction.
type opFunc[T any] func(tx *store.Tx, now int64) (T, error)

// execute runs fn in one transaction, journals the result with args, and
// publishes the committed entry.
func execute[T any](ctx context.Context, e *Engine, op journal.Op, caller solana.PublicKey, args any, fn opFunc[T]) (T, error) {
	var (
		result T
		entry  *journal.Entry
	)
	now := e.clock.Now()
	requestID := e.ids.Generate()

	err := e.store.Update(ctx, func(tx *store.Tx) error {
		r, err := fn(tx, now)
		if err != nil {
			return err
		}
		je, err := journal.New(requestID, op, caller.String(), args, r, now)
		if err != nil {
			return err
		}
		if err := tx.AppendJournal(je); err != nil {
			return err
		}
		result, entry = r, je
		return nil
	})
	if err != nil {
		var zero T
		e.logRejected(op, caller, requestID, now, err)
		return zero, err
	}

	e.logger.Info("operation committed",
		"op", string(op),
		"caller", caller.String(),
		"request_id", requestID,
		"seq", entry.Seq,
		"at", now,
	)
	if err := e.publisher.Publish(ctx, events.FromEntry(entry)); err != nil {
		e.logger.Warn("event publish failed",
			"op", string(op),
			"seq", entry.Seq,
			"error", err,
		)
	}
	return result, nil
}

func (e *Engine) logRejected(op journal.Op, caller solana.PublicKey, requestID string, now int64, err error) {
	if code := presale.CodeOf(err); code != "" {
		e.logger.Info("operation rejected",
			"op", string(op),
			"caller", caller.String(),
			"request_id", requestID,
			"code", string(code),
			"at", now,
		)
		return
	}
	e.logger.Error("operation failed",
		"op", string(op),
		"caller", caller.String(),
		"request_id", requestID,
		"error", err,
	)
}

// loadConfig reads the config singleton, mapping a missing record to
// NotInitialized.
func (e *Engine) loadConfig(tx *store.Tx) (*presale.Config, error) {
	cfg, err := tx.Config(e.addrs.Config.Key)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, presale.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadUser reads the buyer's purchase record and its address. The record
// is nil when the buyer has never purchased.
func (e *Engine) loadUser(tx *store.Tx, buyer solana.PublicKey) (*presale.UserPurchase, pda.Address, error) {
	addr, err := e.addrs.UserPurchase(buyer)
	if err != nil {
		return nil, pda.Address{}, err
	}
	u, err := tx.UserPurchase(addr.Key)
	if err != nil {
		return nil, pda.Address{}, fmt.Errorf("load user purchase: %w", err)
	}
	return u, addr, nil
}
