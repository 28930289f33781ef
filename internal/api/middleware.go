package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeySigner    ctxKey = "signer"
	ctxKeyBody      ctxKey = "body"
)

// Header names of a signed request.
const (
	HeaderSigner    = "X-Presale-Signer"
	HeaderSignature = "X-Presale-Signature"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "panic recovered",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			h.logger.ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.logger.WarnContext(r.Context(), "http request completed", fields...)
		default:
			h.logger.InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// signatureMiddleware reads the body, verifies the signature over the
// method, path and body, checks the timestamp window and rejects a
// signature already used. The signer and body go into the request context.
func (h *Handler) signatureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
		if err != nil {
			writeError(w, r, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "request body too large or unreadable", nil)
			return
		}

		signer, sig, err := verifyRequest(r, body)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized", err.Error(), nil)
			return
		}
		ts, err := h.checkTimestamp(body)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized", err.Error(), nil)
			return
		}
		if !h.seen.claim(sig, ts.Add(MaxClockSkew), h.now()) {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized", "request already used", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySigner, signer)
		ctx = context.WithValue(ctx, ctxKeyBody, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// signedMessage is the byte string a request signature covers.
func signedMessage(method, path string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+2+len(body))
	msg = append(msg, method...)
	msg = append(msg, ' ')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	return append(msg, body...)
}

func verifyRequest(r *http.Request, body []byte) (solana.PublicKey, solana.Signature, error) {
	rawSigner := r.Header.Get(HeaderSigner)
	rawSig := r.Header.Get(HeaderSignature)
	if rawSigner == "" || rawSig == "" {
		return solana.PublicKey{}, solana.Signature{}, errors.New("missing request signature")
	}
	signer, err := solana.PublicKeyFromBase58(rawSigner)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("invalid signer: %w", err)
	}
	sig, err := solana.SignatureFromBase58(rawSig)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("invalid signature: %w", err)
	}
	if !sig.Verify(signer, signedMessage(r.Method, r.URL.Path, body)) {
		return solana.PublicKey{}, solana.Signature{}, errors.New("signature does not match request")
	}
	return signer, sig, nil
}

func (h *Handler) checkTimestamp(body []byte) (time.Time, error) {
	var stamp struct {
		TS *int64 `json:"ts"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&stamp); err != nil {
		return time.Time{}, fmt.Errorf("invalid body: %w", err)
	}
	if stamp.TS == nil {
		return time.Time{}, errors.New("missing ts")
	}
	ts := time.Unix(*stamp.TS, 0)
	skew := h.now().Sub(ts)
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return time.Time{}, fmt.Errorf("ts outside the %s window", MaxClockSkew)
	}
	return ts, nil
}

// replayCache remembers accepted signatures until their ts leaves the
// clock-skew window, after which checkTimestamp rejects them anyway.
type replayCache struct {
	mu   sync.Mutex
	seen map[solana.Signature]time.Time
}

func newReplayCache() *replayCache {
	return &replayCache{seen: make(map[solana.Signature]time.Time)}
}

// claim records sig until expires. It returns false if sig is already held.
func (c *replayCache) claim(sig solana.Signature, expires, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for s, exp := range c.seen {
		if !now.Before(exp) {
			delete(c.seen, s)
		}
	}
	if _, ok := c.seen[sig]; ok {
		return false
	}
	c.seen[sig] = expires
	return true
}

func signerFromContext(ctx context.Context) solana.PublicKey {
	signer, _ := ctx.Value(ctxKeySigner).(solana.PublicKey)
	return signer
}

// decodeSigned unmarshals the verified body into v. Unknown fields are
// rejected.
func decodeSigned(r *http.Request, v any) error {
	body, _ := r.Context().Value(ctxKeyBody).([]byte)
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// SignRequest signs req's method, path and body with key and sets the
// signer headers on req. Clients and tests use it to build authenticated
// requests.
func SignRequest(req *http.Request, key solana.PrivateKey, body []byte) error {
	sig, err := key.Sign(signedMessage(req.Method, req.URL.Path, body))
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set(HeaderSigner, key.PublicKey().String())
	req.Header.Set(HeaderSignature, sig.String())
	return nil
}
