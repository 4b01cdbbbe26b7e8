package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/events"
	"coinwhisperer/internal/storage"
	"coinwhisperer/internal/storage/memory"
	"coinwhisperer/pkg/logger"
)

func init() {
	logger.Init("error", "test")
}

// stubSource returns a fixed batch on every fetch.
type stubSource struct {
	drafts []domain.PostDraft
}

func (s *stubSource) Fetch(ctx context.Context) ([]domain.PostDraft, error) {
	return s.drafts, nil
}

// recordingBroadcaster captures events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingBroadcaster) Broadcast(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingBroadcaster) byType(eventType string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// recordingNotifier captures trade notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	trades []domain.Trade
}

func (r *recordingNotifier) NotifyTrade(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, *trade)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trades)
}

func seedCoins(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []struct {
		symbol  string
		tracked bool
	}{
		{"DOGE", true}, {"SHIB", true}, {"PEPE", false},
	} {
		_, err := store.CreateCoin(ctx, &domain.Coin{
			Name:         c.symbol,
			Symbol:       c.symbol,
			CurrentPrice: decimal.RequireFromString("0.07"),
			Tracked:      c.tracked,
		})
		require.NoError(t, err)
	}
}

func draft(id, content, coin string) domain.PostDraft {
	return domain.PostDraft{ExternalID: id, Content: content, CoinSymbol: coin}
}

func TestRunAnalysis_IngestsAndTrades(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "DOGE to the moon bullish gains", "DOGE"),   // score 1.0 -> BUY
		draft("2", "market crash dump fear everywhere", "SHIB"), // score 0.0 -> SELL
		draft("3", "just had lunch", "DOGE"),                    // score 0.5 -> no trade
	}}
	broadcaster := &recordingBroadcaster{}
	notifier := &recordingNotifier{}
	svc := NewService(store, source, broadcaster, notifier, 100)

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.PostsProcessed)
	assert.Equal(t, 0, result.PostsSkipped)
	assert.Equal(t, 2, result.TradesExecuted)

	trades, err := store.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Len(t, broadcaster.byType(events.TypeNewPost), 3)
	assert.Len(t, broadcaster.byType(events.TypeNewTrade), 2)
	assert.Equal(t, 2, notifier.count())
}

func TestRunAnalysis_IdempotentAcrossRuns(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "DOGE to the moon", "DOGE"),
	}}
	svc := NewService(store, source, &recordingBroadcaster{}, nil, 100)

	first, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.PostsProcessed)

	second, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.PostsProcessed)
	assert.Equal(t, 1, second.PostsSkipped)

	posts, err := store.ListPosts(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	trades, err := store.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1, "repeated runs must not duplicate trades")
}

func TestRunAnalysis_RespectsAutoTradingOff(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	off := false
	_, err := store.UpdateConfig(context.Background(), domain.TradingConfigPatch{AutoTrading: &off})
	require.NoError(t, err)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "DOGE to the moon bullish", "DOGE"),
	}}
	svc := NewService(store, source, &recordingBroadcaster{}, nil, 100)

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.PostsProcessed)
	assert.Equal(t, 0, result.TradesExecuted)

	trades, err := store.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestRunAnalysis_AutoTradingToggleMidBatch(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "DOGE to the moon bullish", "DOGE"),
		draft("2", "SHIB to the moon bullish", "SHIB"),
	}}

	// Disable auto trading as soon as the first trade fires; the second
	// post must then be ingested without trading.
	toggler := events.BroadcasterFunc(func(e events.Event) {
		if e.Type == events.TypeNewTrade {
			off := false
			_, err := store.UpdateConfig(context.Background(), domain.TradingConfigPatch{AutoTrading: &off})
			require.NoError(t, err)
		}
	})
	svc := NewService(store, source, toggler, nil, 100)

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PostsProcessed)
	assert.Equal(t, 1, result.TradesExecuted)

	trades, err := store.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestRunAnalysis_SkipsUntrackedAndUnknownCoins(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "PEPE to the moon bullish", "PEPE"), // untracked
		draft("2", "BTC to the moon bullish", "BTC"),   // unknown
	}}
	svc := NewService(store, source, &recordingBroadcaster{}, nil, 100)

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PostsProcessed)
	assert.Equal(t, 0, result.TradesExecuted)
}

func TestRunAnalysis_NotificationsGate(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	off := false
	_, err := store.UpdateConfig(context.Background(), domain.TradingConfigPatch{Notifications: &off})
	require.NoError(t, err)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "DOGE to the moon bullish", "DOGE"),
	}}
	notifier := &recordingNotifier{}
	svc := NewService(store, source, &recordingBroadcaster{}, notifier, 100)

	result, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TradesExecuted)
	assert.Equal(t, 0, notifier.count())
}

func TestRunAnalysis_UpdatesOverallSentiment(t *testing.T) {
	store := memory.New()
	seedCoins(t, store)

	source := &stubSource{drafts: []domain.PostDraft{
		draft("1", "to the moon bullish gains", "DOGE"),  // 1.0
		draft("2", "crash dump fear", "SHIB"),            // 0.0
		draft("3", "to the moon rocket pump", "DOGE"),    // 1.0
		draft("4", "moon soon, very bullish, gem", "DOGE"), // 1.0
	}}
	svc := NewService(store, source, &recordingBroadcaster{}, nil, 100)

	_, err := svc.RunAnalysis(context.Background())
	require.NoError(t, err)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.75, stats.OverallSentiment, 1e-9)
	assert.Equal(t, domain.SentimentPositive, stats.OverallSentimentLabel)
}
