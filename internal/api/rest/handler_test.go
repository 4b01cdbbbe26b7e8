package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinwhisperer/internal/analysis"
	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/events"
	"coinwhisperer/internal/storage"
	"coinwhisperer/internal/storage/memory"
	"coinwhisperer/pkg/logger"
)

func init() {
	logger.Init("error", "test")
}

type stubSource struct {
	drafts []domain.PostDraft
}

func (s *stubSource) Fetch(ctx context.Context) ([]domain.PostDraft, error) {
	return s.drafts, nil
}

func newTestHandler(t *testing.T, drafts ...domain.PostDraft) (*Handler, storage.Store) {
	t.Helper()
	store := memory.New()
	svc := analysis.NewService(store, &stubSource{drafts: drafts},
		events.BroadcasterFunc(func(events.Event) {}), nil, 100)
	return New(store, svc, Config{AnalyzeRate: 1000, AnalyzeBurst: 1000}), store
}

func doRequest(t *testing.T, h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func seedCoin(t *testing.T, store storage.Store, symbol string, tracked bool) {
	t.Helper()
	_, err := store.CreateCoin(context.Background(), &domain.Coin{
		Name:         symbol,
		Symbol:       symbol,
		CurrentPrice: decimal.RequireFromString("0.07"),
		Tracked:      tracked,
	})
	require.NoError(t, err)
}

func TestCreateCoin(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/coins", map[string]interface{}{
		"name":   "Dogecoin",
		"symbol": "doge",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	data := env.Data.(map[string]interface{})
	assert.Equal(t, "DOGE", data["symbol"])
	assert.Equal(t, true, data["isTracked"])
}

func TestCreateCoin_Defaults(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/coins", map[string]interface{}{
		"symbol": "pepe",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "Pepe", data["name"])
	assert.Equal(t, "0.0001", data["currentPrice"], "never defaults to a zero price")
	assert.Equal(t, "https://cryptologos.cc/logos/pepe-pepe-logo.png", data["image"])
}

func TestCreateCoin_Validation(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)

	cases := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"empty symbol", map[string]interface{}{"name": "x", "symbol": ""}, http.StatusBadRequest},
		{"symbol too long", map[string]interface{}{"symbol": "ABCDEFGHIJK"}, http.StatusBadRequest},
		{"duplicate symbol", map[string]interface{}{"symbol": "doge"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/coins", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.False(t, decodeEnvelope(t, rec).Success)
		})
	}
}

func TestListCoins_TrackedOnly(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)
	seedCoin(t, store, "SHIB", false)

	rec := doRequest(t, h, http.MethodGet, "/api/coins", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var coins []domain.Coin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	require.Len(t, coins, 1)
	assert.Equal(t, "DOGE", coins[0].Symbol)
}

func TestUpdateCoin(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)

	rec := doRequest(t, h, http.MethodPatch, "/api/coins/doge", map[string]interface{}{
		"isTracked": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, false, data["isTracked"])

	// Numeric ID works too
	rec = doRequest(t, h, http.MethodPatch, "/api/coins/1", map[string]interface{}{
		"isTracked": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/api/coins/NOPE", map[string]interface{}{
		"isTracked": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackedCoinsStatsScenario(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)
	seedCoin(t, store, "SHIB", true)
	seedCoin(t, store, "PEPE", false)

	rec := doRequest(t, h, http.MethodGet, "/api/coins", nil)
	var coins []domain.Coin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	assert.Len(t, coins, 2, "untracked coins are hidden from the list")

	rec = doRequest(t, h, http.MethodGet, "/api/stats", nil)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TrackedCoins)
}

func TestCreateTrade(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)

	rec := doRequest(t, h, http.MethodPost, "/api/trades", map[string]interface{}{
		"type":       "BUY",
		"coinSymbol": "DOGE",
		"amount":     "50",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "BUY", data["type"])
	assert.Equal(t, "0.07", data["price"], "defaults to coin's current price")
}

func TestCreateTrade_Validation(t *testing.T) {
	h, store := newTestHandler(t)
	seedCoin(t, store, "DOGE", true)

	cases := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"bad type", map[string]interface{}{"type": "HOLD", "coinSymbol": "DOGE", "amount": "1"}, http.StatusBadRequest},
		{"zero amount", map[string]interface{}{"type": "BUY", "coinSymbol": "DOGE", "amount": "0"}, http.StatusBadRequest},
		{"unknown coin", map[string]interface{}{"type": "BUY", "coinSymbol": "BTC", "amount": "1"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/trades", tc.body)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg domain.TradingConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 0.65, cfg.BuyThreshold)

	rec = doRequest(t, h, http.MethodPatch, "/api/config", map[string]interface{}{
		"buyThreshold": 0.8,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/config", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 0.8, cfg.BuyThreshold)
	assert.Equal(t, 0.40, cfg.SellThreshold)
}

func TestConfigValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPatch, "/api/config", map[string]interface{}{
		"buyThreshold": 1.5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/api/config", map[string]interface{}{
		"riskLevel": "Reckless",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsPatch(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPatch, "/api/stats", map[string]interface{}{
		"overallSentiment":      0.9,
		"overallSentimentLabel": "Positive",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/stats", nil)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0.9, stats.OverallSentiment)
	assert.Equal(t, domain.SentimentPositive, stats.OverallSentimentLabel)

	rec = doRequest(t, h, http.MethodPatch, "/api/stats", map[string]interface{}{
		"overallSentiment": 1.2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/api/stats", map[string]interface{}{
		"overallSentimentLabel": "Euphoric",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	h, store := newTestHandler(t,
		domain.PostDraft{ExternalID: "1", Content: "DOGE to the moon bullish gains", CoinSymbol: "DOGE"},
	)
	seedCoin(t, store, "DOGE", true)

	rec := doRequest(t, h, http.MethodPost, "/api/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["tweetsProcessed"])
	assert.Equal(t, float64(1), data["tradesExecuted"])

	rec = doRequest(t, h, http.MethodGet, "/api/tweets?coinTag=DOGE", nil)
	var posts []domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, 1.0, posts[0].SentimentScore)
}

func TestAnalyzeRateLimit(t *testing.T) {
	store := memory.New()
	svc := analysis.NewService(store, &stubSource{},
		events.BroadcasterFunc(func(events.Event) {}), nil, 100)
	h := New(store, svc, Config{AnalyzeRate: 0.001, AnalyzeBurst: 1})

	rec := doRequest(t, h, http.MethodPost, "/api/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/analyze", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/register", map[string]interface{}{
		"username": "trader",
		"email":    "trader@example.com",
		"password": "hunter22-secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	assert.NotContains(t, data, "passwordHash")

	// Duplicate username
	rec = doRequest(t, h, http.MethodPost, "/api/register", map[string]interface{}{
		"username": "trader",
		"email":    "other@example.com",
		"password": "hunter22-secret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Good login
	rec = doRequest(t, h, http.MethodPost, "/api/login", map[string]interface{}{
		"username": "trader",
		"password": "hunter22-secret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong password
	rec = doRequest(t, h, http.MethodPost, "/api/login", map[string]interface{}{
		"username": "trader",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown user
	rec = doRequest(t, h, http.MethodPost, "/api/login", map[string]interface{}{
		"username": "ghost",
		"password": "whatever-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing username", map[string]interface{}{"email": "a@b.c", "password": "longenough"}},
		{"bad email", map[string]interface{}{"username": "x", "email": "nope", "password": "longenough"}},
		{"short password", map[string]interface{}{"username": "x", "email": "a@b.c", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
