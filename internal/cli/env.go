package cli

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/events"
	"github.com/rustsol114/velirion-presale/internal/store"
)

// session is an open database and the engine bound to it.
type session struct {
	store     *store.Store
	engine    *engine.Engine
	publisher events.Publisher
	logger    *slog.Logger
}

func (s *session) Close() {
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("error closing publisher", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// newLogger builds the stderr logger: the configured level, or debug
// under --verbose.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if opts.Config != nil {
		level = opts.Config.LogLevel
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// openSession opens the database and builds the engine. A non-zero
// --at pins the ledger clock.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	logger := newLogger(opts, cmd)

	programID, err := solana.PublicKeyFromBase58(opts.ProgramID)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid program id", err)
	}

	logger.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var publisher events.Publisher = events.Nop{}
	if opts.Config != nil && opts.Config.RedisURL != "" {
		client, err := events.Connect(opts.Config.RedisURL)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to connect to redis", err)
		}
		publisher = events.NewRedis(client, opts.Config.EventsChannel)
		logger.Debug("publishing events", "channel", opts.Config.EventsChannel)
	}

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithPublisher(publisher),
	}
	if at := opts.At; at != 0 {
		engOpts = append(engOpts, engine.WithClock(engine.ClockFunc(func() int64 { return at })))
	}
	eng, err := engine.New(st, programID, engOpts...)
	if err != nil {
		publisher.Close()
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	return &session{store: st, engine: eng, publisher: publisher, logger: logger}, nil
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadKeypair reads a solana-keygen JSON keypair file.
func loadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--keypair is required")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read keypair %s", path), err)
	}
	return key, nil
}

// parseKey parses a base58 public key flag value.
func parseKey(flag, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, NewExitError(ExitCommandError, fmt.Sprintf("--%s is required", flag))
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s", flag), err)
	}
	return key, nil
}
