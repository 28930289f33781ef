package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustsol114/velirion-presale/internal/engine"
	"github.com/rustsol114/velirion-presale/internal/presale"
	"github.com/rustsol114/velirion-presale/internal/schedule"
	"github.com/rustsol114/velirion-presale/internal/store"
	"github.com/rustsol114/velirion-presale/internal/testutil"
)

const (
	saleStart = int64(1_000)
	phaseLen  = int64(3_600)
	wallTime  = int64(1_700_000_000)
)

var (
	programID  = solana.PublicKey{0x91}
	tokenMint  = solana.PublicKey{0xc1}
	stableMint = solana.PublicKey{0xc2}
)

type apiFixture struct {
	eng       *engine.Engine
	clock     *testutil.ManualClock
	router    http.Handler
	authority solana.PrivateKey
	buyer     solana.PrivateKey
	treasury  solana.PublicKey
	calls     int64
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewManualClock(0)
	eng, err := engine.New(s, programID, engine.WithClock(clock), engine.WithLogger(discard))
	require.NoError(t, err)

	ctx := context.Background()
	res, err := eng.CreateTreasury(ctx, tokenMint, 10_000_000)
	require.NoError(t, err)

	f := &apiFixture{
		eng:       eng,
		clock:     clock,
		authority: testutil.KeyFromAlias("authority"),
		buyer:     testutil.KeyFromAlias("alice"),
		treasury:  res.Account,
	}
	_, err = eng.Airdrop(ctx, f.buyer.PublicKey(), 1_000_000_000)
	require.NoError(t, err)

	h := NewHandler(eng,
		WithLogger(discard),
		WithNow(func() time.Time { return time.Unix(wallTime, 0) }),
	)
	f.router = NewRouter(h)
	return f
}

func testSchedule() *schedule.Document {
	p := &presale.InitParams{
		TotalTokensForSale:      10_000_000,
		MaxPerTransaction:       100_000,
		MaxPerWallet:            500_000,
		MinTimeBetweenPurchases: 60,
		LaunchTimestamp:         saleStart + 10*phaseLen,
		VestingLaunchPercent:    40,
		VestingMonthlyPercent:   30,
	}
	for i := range p.Phases {
		p.Phases[i] = presale.Phase{
			PriceNative:     100,
			PriceStable:     10,
			StartTime:       saleStart + int64(i)*phaseLen,
			EndTime:         saleStart + int64(i+1)*phaseLen,
			TokensAllocated: 1_000_000,
		}
	}
	return schedule.FromParams(p)
}

// do sends a request signed by key (unsigned when key is nil) and decodes
// the envelope. A missing ts is filled with a fresh one so repeated calls
// are distinct requests.
func (f *apiFixture) do(t *testing.T, method, path string, key solana.PrivateKey, body map[string]any) (int, Envelope) {
	t.Helper()
	var raw []byte
	if body != nil {
		if _, ok := body["ts"]; !ok {
			body["ts"] = wallTime + f.calls
			f.calls++
		}
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if key != nil {
		require.NoError(t, SignRequest(req, key, raw))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (f *apiFixture) initialize(t *testing.T) {
	t.Helper()
	code, env := f.do(t, http.MethodPost, "/v1/initialize", f.authority, map[string]any{
		"token_mint":   tokenMint,
		"payment_mint": stableMint,
		"treasury":     f.treasury,
		"schedule":     testSchedule(),
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	f.clock.Set(saleStart)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, env.RequestID)
}

func TestInitializeAndPurchase(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	code, env := f.do(t, http.MethodPost, "/v1/purchase", f.buyer, map[string]any{
		"quantity": 1_000,
		"currency": "native",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(100_000), data["cost"])
	assert.Equal(t, f.buyer.PublicKey().String(), data["buyer"])

	code, env = f.do(t, http.MethodGet, "/v1/purchases/"+f.buyer.PublicKey().String(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	record := env.Data.(map[string]any)["record"].(map[string]any)
	assert.Equal(t, float64(1_000), record["total_purchased"])
	assert.Equal(t, float64(100_000), record["total_spent_native"])
}

func TestInitialize_Twice(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	code, env := f.do(t, http.MethodPost, "/v1/initialize", f.authority, map[string]any{
		"token_mint":   tokenMint,
		"payment_mint": stableMint,
		"treasury":     f.treasury,
		"schedule":     testSchedule(),
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(presale.CodeAlreadyInitialized), env.Error.Code)
}

func TestPurchase_ErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	// Limit violation.
	code, env := f.do(t, http.MethodPost, "/v1/purchase", f.buyer, map[string]any{
		"quantity": 100_001,
		"currency": "native",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, string(presale.CodeExceedsMaxPerTransaction), env.Error.Code)
	assert.Equal(t, "100001", env.Error.Details["quantity"])

	// Input error.
	code, env = f.do(t, http.MethodPost, "/v1/purchase", f.buyer, map[string]any{
		"quantity": 10,
		"currency": "euro",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(presale.CodeInvalidPaymentType), env.Error.Code)

	// State error.
	code, _ = f.do(t, http.MethodPost, "/v1/pause", f.authority, map[string]any{})
	require.Equal(t, http.StatusOK, code)
	code, env = f.do(t, http.MethodPost, "/v1/purchase", f.buyer, map[string]any{
		"quantity": 10,
		"currency": "native",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(presale.CodePresalePaused), env.Error.Code)
}

func TestAdminRoutes_Authorization(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	for _, path := range []string{"/v1/pause", "/v1/unpause", "/v1/burn"} {
		code, env := f.do(t, http.MethodPost, path, f.buyer, map[string]any{})
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, string(presale.CodeUnauthorized), env.Error.Code, path)
	}

	code, env := f.do(t, http.MethodPost, "/v1/config", f.buyer, map[string]any{"max_per_wallet": 1})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, string(presale.CodeUnauthorized), env.Error.Code)

	code, env = f.do(t, http.MethodPost, "/v1/config", f.authority, map[string]any{"max_per_wallet": 1})
	require.Equal(t, http.StatusOK, code)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(1), data["max_per_wallet"])
	assert.Equal(t, float64(100_000), data["max_per_transaction"])
}

func TestSignedRoutes_RejectBadSignatures(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	// Unsigned.
	code, env := f.do(t, http.MethodPost, "/v1/claim", nil, map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", env.Error.Code)

	// Body changed after signing.
	body := []byte(`{"ts":1700000000,"quantity":1,"currency":"native"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase", bytes.NewReader([]byte(`{"ts":1700000000,"quantity":9,"currency":"native"}`)))
	require.NoError(t, SignRequest(req, f.buyer, body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Stale timestamp.
	code, _ = f.do(t, http.MethodPost, "/v1/claim", f.buyer, map[string]any{"ts": wallTime - 3600})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPurchaseStatus_NotFound(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	code, env := f.do(t, http.MethodGet, "/v1/purchases/"+solana.PublicKey{0x01}.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(presale.CodePurchaseNotFound), env.Error.Code)

	code, _ = f.do(t, http.MethodGet, "/v1/purchases/not-a-key", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestClaim_AfterLaunch(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	code, _ := f.do(t, http.MethodPost, "/v1/purchase", f.buyer, map[string]any{"quantity": 1_000, "currency": "sol"})
	require.Equal(t, http.StatusOK, code)

	code, env := f.do(t, http.MethodPost, "/v1/claim", f.buyer, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, string(presale.CodeNoTokensToClaim), env.Error.Code)

	f.clock.Set(saleStart + 10*phaseLen)
	code, env = f.do(t, http.MethodPost, "/v1/claim", f.buyer, map[string]any{})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(400), env.Data.(map[string]any)["amount"])
}

func TestPresaleStatusAndJournal(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/v1/presale", nil, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(presale.CodeNotInitialized), env.Error.Code)

	f.initialize(t)
	code, env = f.do(t, http.MethodGet, "/v1/presale", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), env.Data.(map[string]any)["current_phase"])

	code, env = f.do(t, http.MethodGet, "/v1/journal?after=1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	entries := env.Data.([]any)
	// treasury funding is seq 1, airdrop 2, initialize 3
	require.Len(t, entries, 2)
	assert.Equal(t, "initialize", entries[1].(map[string]any)["op"])

	code, _ = f.do(t, http.MethodGet, "/v1/journal?limit=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAddresses(t *testing.T) {
	f := newAPIFixture(t)
	code, env := f.do(t, http.MethodGet, "/v1/addresses", nil, nil)
	require.Equal(t, http.StatusOK, code)
	data := env.Data.(map[string]any)
	assert.Equal(t, programID.String(), data["program"])
	assert.Contains(t, data, "native_vault")
}

// send posts a pre-signed request with the given signer headers.
func (f *apiFixture) send(path string, header http.Header, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSignedRoutes_RejectReplay(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)

	body := []byte(`{"ts":1700000000}`)
	signed := httptest.NewRequest(http.MethodPost, "/v1/pause", bytes.NewReader(body))
	require.NoError(t, SignRequest(signed, f.authority, body))

	// Signed for /v1/pause, sent to other routes.
	for _, path := range []string{"/v1/unpause", "/v1/burn", "/v1/claim"} {
		rec := f.send(path, signed.Header, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := f.send("/v1/pause", signed.Header, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Same route, same bytes.
	rec = f.send("/v1/pause", signed.Header, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "request already used")

	code, env := f.do(t, http.MethodGet, "/v1/presale", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data.(map[string]any)["config"].(map[string]any)["is_paused"])
}

func TestSignedRoutes_PurchaseReplaySpendsOnce(t *testing.T) {
	f := newAPIFixture(t)
	f.initialize(t)
	f.clock.Set(saleStart + 10)

	body := []byte(`{"ts":1700000000,"quantity":10,"currency":"native"}`)
	signed := httptest.NewRequest(http.MethodPost, "/v1/purchase", bytes.NewReader(body))
	require.NoError(t, SignRequest(signed, f.buyer, body))

	rec := f.send("/v1/purchase", signed.Header, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.clock.Set(saleStart + 1_000)
	rec = f.send("/v1/purchase", signed.Header, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	code, env := f.do(t, http.MethodGet, "/v1/purchases/"+f.buyer.PublicKey().String(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	record := env.Data.(map[string]any)["record"].(map[string]any)
	assert.Equal(t, float64(10), record["total_purchased"])
}

func TestReplayCache_ExpiresEntries(t *testing.T) {
	c := newReplayCache()
	now := time.Unix(wallTime, 0)
	sig := solana.Signature{0x01}

	assert.True(t, c.claim(sig, now.Add(time.Minute), now))
	assert.False(t, c.claim(sig, now.Add(time.Minute), now))
	assert.True(t, c.claim(sig, now.Add(2*time.Minute), now.Add(time.Minute)))
	assert.Len(t, c.seen, 1)
}
