// Package redisstore implements the storage contract on top of Redis.
//
// Records are stored as JSON documents under prefixed keys. Sequential IDs
// come from INCR counters, list ordering from LPUSH-maintained index lists,
// so the newest record is always at the head.
package redisstore

import (
	"context"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coinwhisperer/internal/adapters/redis"
	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/storage"
	"coinwhisperer/pkg/errors"
)

var _ storage.Store = (*Store)(nil)

// Store is a Redis-backed document store.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// New creates a Store using the given client and key prefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "coinwhisperer"
	}
	return &Store{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) key(parts ...string) string {
	key := s.prefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (s *Store) nextID(ctx context.Context, entity string) (int64, error) {
	id, err := s.client.Increment(ctx, s.key("seq", entity))
	if err != nil {
		return 0, errors.Wrap(err, "allocate id")
	}
	return id, nil
}

// CreateCoin stores a coin document and registers its symbol.
func (s *Store) CreateCoin(ctx context.Context, coin *domain.Coin) (*domain.Coin, error) {
	symbol := domain.NormalizeSymbol(coin.Symbol)

	exists, err := s.client.Exists(ctx, s.key("coin", symbol))
	if err != nil {
		return nil, errors.Wrap(err, "check coin")
	}
	if exists {
		return nil, errors.Wrapf(errors.ErrDuplicateSymbol, "%s", symbol)
	}

	id, err := s.nextID(ctx, "coins")
	if err != nil {
		return nil, err
	}

	out := *coin
	out.ID = id
	out.Symbol = symbol

	if err := s.client.Set(ctx, s.key("coin", symbol), &out, 0); err != nil {
		return nil, errors.Wrap(err, "store coin")
	}
	if err := s.raw().SAdd(ctx, s.key("coins"), symbol).Err(); err != nil {
		return nil, errors.Wrap(err, "index coin")
	}

	if err := s.recomputeTrackedCoins(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoinBySymbol returns (nil, nil) when the coin does not exist.
func (s *Store) GetCoinBySymbol(ctx context.Context, symbol string) (*domain.Coin, error) {
	var coin domain.Coin
	err := s.client.Get(ctx, s.key("coin", domain.NormalizeSymbol(symbol)), &coin)
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get coin")
	}
	return &coin, nil
}

// UpdateCoin merges the patch into an existing coin.
func (s *Store) UpdateCoin(ctx context.Context, symbol string, patch domain.CoinPatch) (*domain.Coin, error) {
	coin, err := s.GetCoinBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if coin == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "coin %s", symbol)
	}

	trackedChanged := patch.Apply(coin)
	if err := s.client.Set(ctx, s.key("coin", coin.Symbol), coin, 0); err != nil {
		return nil, errors.Wrap(err, "store coin")
	}

	if trackedChanged {
		if err := s.recomputeTrackedCoins(ctx); err != nil {
			return nil, err
		}
	}
	return coin, nil
}

// ListCoins returns all coins ordered by ID.
func (s *Store) ListCoins(ctx context.Context) ([]domain.Coin, error) {
	symbols, err := s.raw().SMembers(ctx, s.key("coins")).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list coins")
	}

	coins := make([]domain.Coin, 0, len(symbols))
	for _, symbol := range symbols {
		var coin domain.Coin
		if err := s.client.Get(ctx, s.key("coin", symbol), &coin); err != nil {
			if err == goredis.Nil {
				continue
			}
			return nil, errors.Wrap(err, "get coin")
		}
		coins = append(coins, coin)
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].ID < coins[j].ID })
	return coins, nil
}

// CreatePost stores a post document, rejecting duplicate external IDs.
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	exists, err := s.client.Exists(ctx, s.key("post", post.ExternalID))
	if err != nil {
		return nil, errors.Wrap(err, "check post")
	}
	if exists {
		return nil, errors.Wrapf(errors.ErrDuplicatePost, "%s", post.ExternalID)
	}

	id, err := s.nextID(ctx, "posts")
	if err != nil {
		return nil, err
	}

	out := *post
	out.ID = id
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.now().UTC()
	}

	if err := s.client.Set(ctx, s.key("post", out.ExternalID), &out, 0); err != nil {
		return nil, errors.Wrap(err, "store post")
	}
	if err := s.raw().LPush(ctx, s.key("posts", "index"), out.ExternalID).Err(); err != nil {
		return nil, errors.Wrap(err, "index post")
	}
	return &out, nil
}

// GetPostByExternalID returns (nil, nil) when the post does not exist.
func (s *Store) GetPostByExternalID(ctx context.Context, externalID string) (*domain.Post, error) {
	var post domain.Post
	err := s.client.Get(ctx, s.key("post", externalID), &post)
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get post")
	}
	return &post, nil
}

// ListPosts returns up to limit posts, newest first, optionally filtered
// by coin symbol. The index list is walked head-first so no sort is needed.
func (s *Store) ListPosts(ctx context.Context, limit int, coinSymbol string) ([]domain.Post, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	filter := domain.NormalizeSymbol(coinSymbol)

	ids, err := s.raw().LRange(ctx, s.key("posts", "index"), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}

	posts := make([]domain.Post, 0, limit)
	for _, id := range ids {
		if len(posts) == limit {
			break
		}
		var post domain.Post
		if err := s.client.Get(ctx, s.key("post", id), &post); err != nil {
			if err == goredis.Nil {
				continue
			}
			return nil, errors.Wrap(err, "get post")
		}
		if filter != "" && domain.NormalizeSymbol(post.CoinSymbol) != filter {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// CreateTrade stores a trade document and bumps the active trade count.
func (s *Store) CreateTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	id, err := s.nextID(ctx, "trades")
	if err != nil {
		return nil, err
	}

	out := *trade
	out.ID = id
	if out.Timestamp.IsZero() {
		out.Timestamp = s.now().UTC()
	}

	if err := s.client.Set(ctx, s.key("trade", formatID(id)), &out, 0); err != nil {
		return nil, errors.Wrap(err, "store trade")
	}
	if err := s.raw().LPush(ctx, s.key("trades", "index"), formatID(id)).Err(); err != nil {
		return nil, errors.Wrap(err, "index trade")
	}

	count, err := s.raw().LLen(ctx, s.key("trades", "index")).Result()
	if err != nil {
		return nil, errors.Wrap(err, "count trades")
	}
	active := int(count)
	if _, err := s.UpdateStats(ctx, domain.StatsPatch{ActiveTrades: &active}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTrades returns up to limit trades, newest first.
func (s *Store) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	ids, err := s.raw().LRange(ctx, s.key("trades", "index"), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list trades")
	}

	trades := make([]domain.Trade, 0, len(ids))
	for _, id := range ids {
		var trade domain.Trade
		if err := s.client.Get(ctx, s.key("trade", id), &trade); err != nil {
			if err == goredis.Nil {
				continue
			}
			return nil, errors.Wrap(err, "get trade")
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// CreateUser stores a user document with username and email uniqueness.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exists, err := s.client.Exists(ctx, s.key("user", user.Username))
	if err != nil {
		return nil, errors.Wrap(err, "check user")
	}
	if exists {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "user %s", user.Username)
	}
	exists, err = s.client.Exists(ctx, s.key("user", "email", user.Email))
	if err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if exists {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "email %s", user.Email)
	}

	id, err := s.nextID(ctx, "users")
	if err != nil {
		return nil, err
	}

	out := *user
	out.ID = id
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.now().UTC()
	}

	if err := s.client.Set(ctx, s.key("user", out.Username), &out, 0); err != nil {
		return nil, errors.Wrap(err, "store user")
	}
	if err := s.client.Set(ctx, s.key("user", "email", out.Email), out.Username, 0); err != nil {
		return nil, errors.Wrap(err, "index email")
	}
	return &out, nil
}

// GetUserByUsername returns (nil, nil) when the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := s.client.Get(ctx, s.key("user", username), &user)
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &user, nil
}

// GetConfig lazily creates the config singleton with defaults.
func (s *Store) GetConfig(ctx context.Context) (*domain.TradingConfig, error) {
	var cfg domain.TradingConfig
	err := s.client.Get(ctx, s.key("config"), &cfg)
	if err == goredis.Nil {
		cfg = domain.DefaultTradingConfig()
		cfg.ID = 1
		if err := s.client.Set(ctx, s.key("config"), &cfg, 0); err != nil {
			return nil, errors.Wrap(err, "store config")
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get config")
	}
	return &cfg, nil
}

// UpdateConfig merges the patch into the singleton.
func (s *Store) UpdateConfig(ctx context.Context, patch domain.TradingConfigPatch) (*domain.TradingConfig, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(cfg)
	if err := s.client.Set(ctx, s.key("config"), cfg, 0); err != nil {
		return nil, errors.Wrap(err, "store config")
	}
	return cfg, nil
}

// GetStats lazily creates the stats singleton and touches LastUpdated.
func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastUpdated = s.now().UTC()
	if err := s.client.Set(ctx, s.key("stats"), stats, 0); err != nil {
		return nil, errors.Wrap(err, "store stats")
	}
	return stats, nil
}

// UpdateStats merges the patch and stamps LastUpdated.
func (s *Store) UpdateStats(ctx context.Context, patch domain.StatsPatch) (*domain.Stats, error) {
	stats, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(stats)
	stats.LastUpdated = s.now().UTC()
	if err := s.client.Set(ctx, s.key("stats"), stats, 0); err != nil {
		return nil, errors.Wrap(err, "store stats")
	}
	return stats, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) loadStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	err := s.client.Get(ctx, s.key("stats"), &stats)
	if err == goredis.Nil {
		tracked, cerr := s.trackedCount(ctx)
		if cerr != nil {
			return nil, cerr
		}
		stats = domain.DefaultStats(tracked)
		stats.ID = 1
		return &stats, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get stats")
	}
	return &stats, nil
}

func (s *Store) trackedCount(ctx context.Context) (int, error) {
	coins, err := s.ListCoins(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, coin := range coins {
		if coin.Tracked {
			count++
		}
	}
	return count, nil
}

func (s *Store) recomputeTrackedCoins(ctx context.Context) error {
	tracked, err := s.trackedCount(ctx)
	if err != nil {
		return err
	}
	_, err = s.UpdateStats(ctx, domain.StatsPatch{TrackedCoins: &tracked})
	return err
}

func (s *Store) raw() *goredis.Client {
	return s.client.Client()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
