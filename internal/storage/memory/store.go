// Package memory implements the store on plain maps. It is the default
// backend for the demo and the reference implementation for the storage
// contract; a single mutex guards every collection so concurrent request
// handlers cannot lose stats updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/storage"
	"coinwhisperer/pkg/errors"
)

// Compile-time check
var _ storage.Store = (*Store)(nil)

// Store keeps all five collections in memory
type Store struct {
	mu sync.Mutex

	coins             map[string]*domain.Coin // keyed by normalized symbol
	posts             []*domain.Post
	postsByExternalID map[string]*domain.Post
	trades            []*domain.Trade
	users             map[string]*domain.User // keyed by username

	config *domain.TradingConfig
	stats  *domain.Stats

	nextCoinID  int64
	nextPostID  int64
	nextTradeID int64
	nextUserID  int64

	now func() time.Time
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		coins:             make(map[string]*domain.Coin),
		postsByExternalID: make(map[string]*domain.Post),
		users:             make(map[string]*domain.User),
		nextCoinID:        1,
		nextPostID:        1,
		nextTradeID:       1,
		nextUserID:        1,
		now:               time.Now,
	}
}

// Close is a no-op for the in-memory backend
func (s *Store) Close() error {
	return nil
}

// CreateCoin inserts a coin and recomputes the tracked-coin counter
func (s *Store) CreateCoin(ctx context.Context, coin *domain.Coin) (*domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeSymbol(coin.Symbol)
	if key == "" {
		return nil, errors.NewValidationError("symbol", "must not be empty", coin.Symbol)
	}
	if _, exists := s.coins[key]; exists {
		return nil, errors.Wrapf(errors.ErrDuplicateSymbol, "%s", key)
	}

	stored := *coin
	stored.ID = s.nextCoinID
	stored.Symbol = key
	s.nextCoinID++
	s.coins[key] = &stored

	s.recomputeTrackedCoinsLocked()

	out := stored
	return &out, nil
}

// GetCoinBySymbol looks up a coin case-insensitively; absent coins return (nil, nil)
func (s *Store) GetCoinBySymbol(ctx context.Context, symbol string) (*domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coin, ok := s.coins[domain.NormalizeSymbol(symbol)]
	if !ok {
		return nil, nil
	}
	out := *coin
	return &out, nil
}

// UpdateCoin applies a partial update; a tracked-flag change recomputes stats
func (s *Store) UpdateCoin(ctx context.Context, symbol string, patch domain.CoinPatch) (*domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coin, ok := s.coins[domain.NormalizeSymbol(symbol)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "coin %s", symbol)
	}

	if trackedChanged := patch.Apply(coin); trackedChanged {
		s.recomputeTrackedCoinsLocked()
	}

	out := *coin
	return &out, nil
}

// ListCoins returns all coins ordered by ID
func (s *Store) ListCoins(ctx context.Context) ([]domain.Coin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coins := make([]domain.Coin, 0, len(s.coins))
	for _, coin := range s.coins {
		coins = append(coins, *coin)
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].ID < coins[j].ID })
	return coins, nil
}

// CreatePost inserts a post; duplicate external IDs are rejected
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postsByExternalID[post.ExternalID]; exists {
		return nil, errors.Wrapf(errors.ErrDuplicatePost, "%s", post.ExternalID)
	}

	stored := *post
	stored.ID = s.nextPostID
	s.nextPostID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	stored.CoinSymbol = domain.NormalizeSymbol(stored.CoinSymbol)

	s.posts = append(s.posts, &stored)
	s.postsByExternalID[stored.ExternalID] = &stored

	out := stored
	return &out, nil
}

// GetPostByExternalID returns (nil, nil) when the post was never ingested
func (s *Store) GetPostByExternalID(ctx context.Context, externalID string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.postsByExternalID[externalID]
	if !ok {
		return nil, nil
	}
	out := *post
	return &out, nil
}

// ListPosts returns posts newest-first, optionally filtered by coin symbol
func (s *Store) ListPosts(ctx context.Context, limit int, coinSymbol string) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	filter := domain.NormalizeSymbol(coinSymbol)

	matched := make([]domain.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if filter != "" && post.CoinSymbol != filter {
			continue
		}
		matched = append(matched, *post)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CreateTrade inserts a trade with the next sequential ID and recomputes
// the active-trade counter
func (s *Store) CreateTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *trade
	stored.ID = s.nextTradeID
	s.nextTradeID++
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now().UTC()
	}
	stored.CoinSymbol = domain.NormalizeSymbol(stored.CoinSymbol)

	s.trades = append(s.trades, &stored)

	active := len(s.trades)
	s.applyStatsLocked(domain.StatsPatch{ActiveTrades: &active})

	out := stored
	return &out, nil
}

// ListTrades returns trades newest-first
func (s *Store) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	trades := make([]domain.Trade, 0, len(s.trades))
	for _, trade := range s.trades {
		trades = append(trades, *trade)
	}
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp.Equal(trades[j].Timestamp) {
			return trades[i].ID > trades[j].ID
		}
		return trades[i].Timestamp.After(trades[j].Timestamp)
	})

	if len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// CreateUser inserts a user; duplicate usernames or emails are rejected
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "user %s", user.Username)
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, errors.Wrapf(errors.ErrAlreadyExists, "email %s", user.Email)
		}
	}

	stored := *user
	stored.ID = s.nextUserID
	s.nextUserID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	s.users[stored.Username] = &stored

	out := stored
	return &out, nil
}

// GetUserByUsername returns (nil, nil) when the user does not exist
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	out := *user
	return &out, nil
}

// GetConfig lazily creates the config singleton with defaults
func (s *Store) GetConfig(ctx context.Context) (*domain.TradingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.configLocked()
	return &out, nil
}

// UpdateConfig merges the patch into the singleton
func (s *Store) UpdateConfig(ctx context.Context, patch domain.TradingConfigPatch) (*domain.TradingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.configLocked()
	patch.Apply(cfg)

	out := *cfg
	return &out, nil
}

// GetStats lazily creates the stats singleton and touches LastUpdated
func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.statsLocked()
	stats.LastUpdated = s.now().UTC()

	out := *stats
	return &out, nil
}

// UpdateStats merges the patch and stamps LastUpdated
func (s *Store) UpdateStats(ctx context.Context, patch domain.StatsPatch) (*domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.applyStatsLocked(patch)
	return &out, nil
}

// configLocked returns the singleton, creating it on first access
func (s *Store) configLocked() *domain.TradingConfig {
	if s.config == nil {
		cfg := domain.DefaultTradingConfig()
		cfg.ID = 1
		s.config = &cfg
	}
	return s.config
}

// statsLocked returns the singleton, creating it on first access
func (s *Store) statsLocked() *domain.Stats {
	if s.stats == nil {
		stats := domain.DefaultStats(s.trackedCountLocked())
		stats.ID = 1
		s.stats = &stats
	}
	return s.stats
}

func (s *Store) applyStatsLocked(patch domain.StatsPatch) *domain.Stats {
	stats := s.statsLocked()
	patch.Apply(stats)
	stats.LastUpdated = s.now().UTC()
	return stats
}

func (s *Store) trackedCountLocked() int {
	count := 0
	for _, coin := range s.coins {
		if coin.Tracked {
			count++
		}
	}
	return count
}

func (s *Store) recomputeTrackedCoinsLocked() {
	tracked := s.trackedCountLocked()
	s.applyStatsLocked(domain.StatsPatch{TrackedCoins: &tracked})
}
