// Package api exposes the presale engine over HTTP.
//
// Reads are open. Every mutating route requires a signed request: the
// message "METHOD PATH\n" followed by the raw body is signed with the
// caller's ed25519 key and sent with the headers
// X-Presale-Signer (base58 public key) and X-Presale-Signature (base58
// signature). The signer is the caller identity passed to the engine, so a
// buyer can only buy and claim for itself and only the authority key can
// pause or change limits.
//
// Signed bodies carry a "ts" field in unix seconds that must be within
// MaxClockSkew of the server clock. A signature is accepted once.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rustsol114/velirion-presale/internal/engine"
)

// MaxClockSkew bounds how far a signed request's ts may be from server time.
const MaxClockSkew = 5 * time.Minute

// Handler serves the presale HTTP API.
type Handler struct {
	engine  *engine.Engine
	logger  *slog.Logger
	maxBody int64
	now     func() time.Time
	seen    *replayCache
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithMaxBodyBytes caps request bodies. Default: 1 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// WithNow sets the clock used to check request timestamps.
func WithNow(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler binds the HTTP adapter to eng.
func NewHandler(eng *engine.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:  eng,
		logger:  slog.Default(),
		maxBody: 1 << 20,
		now:     time.Now,
		seen:    newReplayCache(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter registers the presale routes and middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/presale", h.presaleStatus)
		r.Get("/addresses", h.addresses)
		r.Get("/purchases/{wallet}", h.purchaseStatus)
		r.Get("/journal", h.journal)

		r.Group(func(r chi.Router) {
			r.Use(h.signatureMiddleware)
			r.Post("/initialize", h.initialize)
			r.Post("/purchase", h.purchase)
			r.Post("/claim", h.claim)
			r.Post("/pause", h.pause)
			r.Post("/unpause", h.unpause)
			r.Post("/config", h.updateConfig)
			r.Post("/burn", h.burn)
		})
	})

	return r
}
