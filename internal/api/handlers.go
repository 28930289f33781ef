package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/schedule"
)

// InitializeRequest is the body of POST /v1/initialize.
type InitializeRequest struct {
	TS          int64              `json:"ts"`
	TokenMint   solana.PublicKey   `json:"token_mint"`
	PaymentMint solana.PublicKey   `json:"payment_mint"`
	Treasury    solana.PublicKey   `json:"treasury"`
	Schedule    *schedule.Document `json:"schedule"`
}

// PurchaseRequest is the body of POST /v1/purchase.
type PurchaseRequest struct {
	TS       int64            `json:"ts"`
	Quantity uint64           `json:"quantity"`
	Currency presale.Currency `json:"currency"`
}

// UpdateConfigRequest is the body of POST /v1/config.
type UpdateConfigRequest struct {
	TS int64 `json:"ts"`
	presale.ConfigUpdate
}

// EmptyRequest is the body of routes without parameters.
type EmptyRequest struct {
	TS int64 `json:"ts"`
}

func asPresaleError(err error) (*presale.Error, bool) {
	var pe *presale.Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) presaleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.PresaleStatus(r.Context())
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, st)
}

func (h *Handler) addresses(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, h.engine.Addresses())
}

func (h *Handler) purchaseStatus(w http.ResponseWriter, r *http.Request) {
	wallet, err := solana.PublicKeyFromBase58(chi.URLParam(r, "wallet"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	st, err := h.engine.PurchaseStatus(r.Context(), wallet)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, st)
}

func (h *Handler) journal(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	entries, err := h.engine.Journal(r.Context(), after, int(limit))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, entries)
}

func queryInt(r *http.Request, key string, def int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Schedule == nil {
		h.badRequest(w, r, errors.New("schedule is required"))
		return
	}
	params, err := req.Schedule.Params()
	if err != nil {
		if _, ok := asPresaleError(err); ok {
			h.writeEngineError(w, r, err)
			return
		}
		h.badRequest(w, r, err)
		return
	}
	cfg, err := h.engine.Initialize(r.Context(), signerFromContext(r.Context()), engine.InitRequest{
		Params:      params,
		TokenMint:   req.TokenMint,
		PaymentMint: req.PaymentMint,
		Treasury:    req.Treasury,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusCreated, cfg)
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decodeSigned(r, &req); err != nil {
		if _, ok := asPresaleError(err); ok {
			h.writeEngineError(w, r, err)
			return
		}
		h.badRequest(w, r, err)
		return
	}
	receipt, err := h.engine.Purchase(r.Context(), signerFromContext(r.Context()), req.Quantity, req.Currency)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, receipt)
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	var req EmptyRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	receipt, err := h.engine.ClaimVested(r.Context(), signerFromContext(r.Context()))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, receipt)
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	var req EmptyRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	res, err := h.engine.Pause(r.Context(), signerFromContext(r.Context()))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, res)
}

func (h *Handler) unpause(w http.ResponseWriter, r *http.Request) {
	var req EmptyRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	res, err := h.engine.Unpause(r.Context(), signerFromContext(r.Context()))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, res)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	cfg, err := h.engine.UpdateConfig(r.Context(), signerFromContext(r.Context()), req.ConfigUpdate)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, cfg)
}

func (h *Handler) burn(w http.ResponseWriter, r *http.Request) {
	var req EmptyRequest
	if err := decodeSigned(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	receipt, err := h.engine.BurnUnsold(r.Context(), signerFromContext(r.Context()))
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, receipt)
}
