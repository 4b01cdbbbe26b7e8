package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/errors"
)

func newCoin(symbol string, tracked bool) *domain.Coin {
	return &domain.Coin{
		Name:         symbol,
		Symbol:       symbol,
		CurrentPrice: decimal.RequireFromString("0.01"),
		Tracked:      tracked,
	}
}

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestStore_CreateCoinAndLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateCoin(ctx, newCoin("doge", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "DOGE", created.Symbol, "symbols are stored upper-cased")

	// Case-insensitive lookup
	for _, sym := range []string{"DOGE", "doge", "Doge"} {
		coin, err := s.GetCoinBySymbol(ctx, sym)
		require.NoError(t, err)
		require.NotNil(t, coin, "lookup %q", sym)
		assert.Equal(t, created.ID, coin.ID)
	}

	// Missing coin is not an error
	coin, err := s.GetCoinBySymbol(ctx, "BTC")
	require.NoError(t, err)
	assert.Nil(t, coin)
}

func TestStore_CreateCoinDuplicateSymbol(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateCoin(ctx, newCoin("DOGE", true))
	require.NoError(t, err)

	_, err = s.CreateCoin(ctx, newCoin("doge", false))
	assert.ErrorIs(t, err, errors.ErrDuplicateSymbol)
}

func TestStore_UpdateCoinNotFound(t *testing.T) {
	s := New()

	_, err := s.UpdateCoin(context.Background(), "NOPE", domain.CoinPatch{Tracked: boolPtr(false)})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_TrackedCoinsInvariant(t *testing.T) {
	s := New()
	ctx := context.Background()

	// DOGE and SHIB tracked, PEPE untracked
	_, err := s.CreateCoin(ctx, newCoin("DOGE", true))
	require.NoError(t, err)
	_, err = s.CreateCoin(ctx, newCoin("SHIB", true))
	require.NoError(t, err)
	_, err = s.CreateCoin(ctx, newCoin("PEPE", false))
	require.NoError(t, err)

	coins, err := s.ListCoins(ctx)
	require.NoError(t, err)
	assert.Len(t, coins, 3)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TrackedCoins)

	// Toggling tracking keeps the invariant
	_, err = s.UpdateCoin(ctx, "PEPE", domain.CoinPatch{Tracked: boolPtr(true)})
	require.NoError(t, err)
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TrackedCoins)

	_, err = s.UpdateCoin(ctx, "doge", domain.CoinPatch{Tracked: boolPtr(false)})
	require.NoError(t, err)
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TrackedCoins)

	// A no-op patch does not disturb it
	_, err = s.UpdateCoin(ctx, "SHIB", domain.CoinPatch{Tracked: boolPtr(true)})
	require.NoError(t, err)
	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TrackedCoins)
}

func TestStore_ActiveTradesInvariant(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		trade := &domain.Trade{
			Type:       domain.TradeBuy,
			CoinSymbol: "DOGE",
			Amount:     decimal.NewFromInt(100),
			Price:      decimal.RequireFromString("0.07"),
		}
		created, err := s.CreateTrade(ctx, trade)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), created.ID, "sequential trade IDs")

		stats, err := s.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, i+1, stats.ActiveTrades)
	}
}

func TestStore_PostDuplicateExternalID(t *testing.T) {
	s := New()
	ctx := context.Background()

	post := &domain.Post{
		ExternalID: "123",
		Content:    "to the moon",
		CoinSymbol: "DOGE",
	}
	_, err := s.CreatePost(ctx, post)
	require.NoError(t, err)

	_, err = s.CreatePost(ctx, post)
	assert.ErrorIs(t, err, errors.ErrDuplicatePost)

	found, err := s.GetPostByExternalID(ctx, "123")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := s.GetPostByExternalID(ctx, "456")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ListPostsNewestFirstAndFiltered(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, tc := range []struct {
		id   string
		coin string
	}{
		{"a", "DOGE"}, {"b", "SHIB"}, {"c", "DOGE"}, {"d", "PEPE"},
	} {
		_, err := s.CreatePost(ctx, &domain.Post{
			ExternalID: tc.id,
			CoinSymbol: tc.coin,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	posts, err := s.ListPosts(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, "d", posts[0].ExternalID)
	assert.Equal(t, "a", posts[3].ExternalID)

	doge, err := s.ListPosts(ctx, 10, "doge")
	require.NoError(t, err)
	require.Len(t, doge, 2)
	assert.Equal(t, "c", doge[0].ExternalID)

	limited, err := s.ListPosts(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_ConfigDefaultsAndPatchRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	cfg, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.65, cfg.BuyThreshold)
	assert.Equal(t, 0.40, cfg.SellThreshold)
	assert.True(t, cfg.AutoTrading)
	assert.True(t, cfg.Notifications)
	assert.Equal(t, domain.RiskMedium, cfg.RiskLevel)

	updated, err := s.UpdateConfig(ctx, domain.TradingConfigPatch{BuyThreshold: floatPtr(0.8)})
	require.NoError(t, err)
	assert.Equal(t, 0.8, updated.BuyThreshold)

	// All other fields keep their prior values
	after, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.8, after.BuyThreshold)
	assert.Equal(t, cfg.SellThreshold, after.SellThreshold)
	assert.Equal(t, cfg.AutoTrading, after.AutoTrading)
	assert.Equal(t, cfg.Notifications, after.Notifications)
	assert.Equal(t, cfg.RiskLevel, after.RiskLevel)
}

func TestStore_StatsDefaultsAndLastUpdated(t *testing.T) {
	s := New()
	ctx := context.Background()

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.5, stats.OverallSentiment)
	assert.Equal(t, domain.SentimentNeutral, stats.OverallSentimentLabel)
	assert.Equal(t, 0, stats.ActiveTrades)
	assert.True(t, stats.ProfitLoss.IsZero())

	first := stats.LastUpdated
	time.Sleep(5 * time.Millisecond)

	stats, err = s.GetStats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.LastUpdated.After(first), "GetStats touches LastUpdated")

	sentiment := 0.9
	label := domain.LabelForScore(sentiment)
	updated, err := s.UpdateStats(ctx, domain.StatsPatch{
		OverallSentiment:      &sentiment,
		OverallSentimentLabel: &label,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.9, updated.OverallSentiment)
	assert.Equal(t, domain.SentimentPositive, updated.OverallSentimentLabel)
	assert.False(t, updated.LastUpdated.Before(stats.LastUpdated))
}

func TestStore_Users(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &domain.User{Username: "trader", Email: "trader@example.com", PasswordHash: "x"}
	created, err := s.CreateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	_, err = s.CreateUser(ctx, &domain.User{Username: "trader", Email: "other@example.com"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = s.CreateUser(ctx, &domain.User{Username: "other", Email: "trader@example.com"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	found, err := s.GetUserByUsername(ctx, "trader")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := s.GetUserByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_StatsTrackedSeedAtLazyCreate(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Coins created before first stats read are reflected in the lazy default
	_, err := s.CreateCoin(ctx, newCoin("DOGE", true))
	require.NoError(t, err)
	_, err = s.CreateCoin(ctx, newCoin("PEPE", false))
	require.NoError(t, err)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TrackedCoins)
}
