// Package postgres implements the storage contract on PostgreSQL via sqlx.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/storage"
	"coinwhisperer/pkg/errors"
)

var _ storage.Store = (*Store)(nil)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed store.
type Store struct {
	db *sqlx.DB
}

// New creates a Store over an established connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// CreateCoin inserts a coin and recomputes the tracked coin count.
func (s *Store) CreateCoin(ctx context.Context, coin *domain.Coin) (*domain.Coin, error) {
	query := `
		INSERT INTO coins (name, symbol, current_price, price_change_percentage, image, is_tracked)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	out := *coin
	out.Symbol = domain.NormalizeSymbol(coin.Symbol)

	err := s.db.QueryRowContext(ctx, query,
		out.Name, out.Symbol, out.CurrentPrice, out.PriceChangePct, out.Image, out.Tracked,
	).Scan(&out.ID)
	if isUniqueViolation(err) {
		return nil, errors.Wrapf(errors.ErrDuplicateSymbol, "%s", out.Symbol)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create coin")
	}

	if err := s.recomputeTrackedCoins(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoinBySymbol returns (nil, nil) when the coin does not exist.
func (s *Store) GetCoinBySymbol(ctx context.Context, symbol string) (*domain.Coin, error) {
	query := `
		SELECT id, name, symbol, current_price, price_change_percentage, image, is_tracked
		FROM coins
		WHERE symbol = $1
	`

	coin := &domain.Coin{}
	err := s.db.GetContext(ctx, coin, query, domain.NormalizeSymbol(symbol))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get coin by symbol")
	}
	return coin, nil
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

	query := `
		UPDATE coins
		SET name = $2, current_price = $3, price_change_percentage = $4, image = $5, is_tracked = $6
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, query,
		coin.ID, coin.Name, coin.CurrentPrice, coin.PriceChangePct, coin.Image, coin.Tracked,
	); err != nil {
		return nil, errors.Wrap(err, "update coin")
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
	query := `
		SELECT id, name, symbol, current_price, price_change_percentage, image, is_tracked
		FROM coins
		ORDER BY id
	`

	coins := []domain.Coin{}
	if err := s.db.SelectContext(ctx, &coins, query); err != nil {
		return nil, errors.Wrap(err, "list coins")
	}
	return coins, nil
}

// CreatePost inserts a post, rejecting duplicate external IDs.
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	query := `
		INSERT INTO posts (
			external_id, content, author_name, author_handle, author_image,
			created_at, likes, reposts, sentiment_score, sentiment_label, coin_symbol
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	out := *post
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, query,
		out.ExternalID, out.Content, out.AuthorName, out.AuthorHandle, out.AuthorImage,
		out.CreatedAt, out.Likes, out.Reposts, out.SentimentScore, out.SentimentLabel, out.CoinSymbol,
	).Scan(&out.ID)
	if isUniqueViolation(err) {
		return nil, errors.Wrapf(errors.ErrDuplicatePost, "%s", out.ExternalID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create post")
	}
	return &out, nil
}

// GetPostByExternalID returns (nil, nil) when the post does not exist.
func (s *Store) GetPostByExternalID(ctx context.Context, externalID string) (*domain.Post, error) {
	query := `
		SELECT id, external_id, content, author_name, author_handle, author_image,
		       created_at, likes, reposts, sentiment_score, sentiment_label, coin_symbol
		FROM posts
		WHERE external_id = $1
	`

	post := &domain.Post{}
	err := s.db.GetContext(ctx, post, query, externalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get post by external id")
	}
	return post, nil
}

// ListPosts returns up to limit posts, newest first, optionally filtered
// by coin symbol.
func (s *Store) ListPosts(ctx context.Context, limit int, coinSymbol string) ([]domain.Post, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	query := `
		SELECT id, external_id, content, author_name, author_handle, author_image,
		       created_at, likes, reposts, sentiment_score, sentiment_label, coin_symbol
		FROM posts
	`
	args := []interface{}{}
	if coinSymbol != "" {
		query += ` WHERE coin_symbol = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, domain.NormalizeSymbol(coinSymbol), limit)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $1`
		args = append(args, limit)
	}

	posts := []domain.Post{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	return posts, nil
}

// CreateTrade inserts a trade and recomputes the active trade count.
func (s *Store) CreateTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	query := `
		INSERT INTO trades (type, coin_symbol, amount, price, sentiment_score, threshold, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	out := *trade
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, query,
		out.Type, out.CoinSymbol, out.Amount, out.Price, out.SentimentScore, out.Threshold, out.Timestamp,
	).Scan(&out.ID)
	if err != nil {
		return nil, errors.Wrap(err, "create trade")
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM trades`); err != nil {
		return nil, errors.Wrap(err, "count trades")
	}
	if _, err := s.UpdateStats(ctx, domain.StatsPatch{ActiveTrades: &count}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTrades returns up to limit trades, newest first.
func (s *Store) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	query := `
		SELECT id, type, coin_symbol, amount, price, sentiment_score, threshold, executed_at
		FROM trades
		ORDER BY executed_at DESC, id DESC
		LIMIT $1
	`

	trades := []domain.Trade{}
	if err := s.db.SelectContext(ctx, &trades, query, limit); err != nil {
		return nil, errors.Wrap(err, "list trades")
	}
	return trades, nil
}

// CreateUser inserts a user with username and email uniqueness.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	out := *user
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, query,
		out.Username, out.Email, out.PasswordHash, out.CreatedAt,
	).Scan(&out.ID)
	if isUniqueViolation(err) {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "user %s", out.Username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return &out, nil
}

// GetUserByUsername returns (nil, nil) when the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	user := &domain.User{}
	err := s.db.GetContext(ctx, user, query, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by username")
	}
	return user, nil
}

// GetConfig lazily inserts the config singleton with defaults.
func (s *Store) GetConfig(ctx context.Context) (*domain.TradingConfig, error) {
	query := `
		SELECT id, buy_threshold, sell_threshold, auto_trading, notifications, risk_level
		FROM trading_config
		WHERE id = 1
	`

	cfg := &domain.TradingConfig{}
	err := s.db.GetContext(ctx, cfg, query)
	if err == sql.ErrNoRows {
		return s.insertDefaultConfig(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get config")
	}
	return cfg, nil
}

// UpdateConfig merges the patch into the singleton row.
func (s *Store) UpdateConfig(ctx context.Context, patch domain.TradingConfigPatch) (*domain.TradingConfig, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(cfg)

	query := `
		UPDATE trading_config
		SET buy_threshold = $1, sell_threshold = $2, auto_trading = $3,
		    notifications = $4, risk_level = $5
		WHERE id = 1
	`
	if _, err := s.db.ExecContext(ctx, query,
		cfg.BuyThreshold, cfg.SellThreshold, cfg.AutoTrading, cfg.Notifications, cfg.RiskLevel,
	); err != nil {
		return nil, errors.Wrap(err, "update config")
	}
	return cfg, nil
}

// GetStats lazily inserts the stats singleton and touches last_updated.
func (s *Store) GetStats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	return s.writeStats(ctx, stats)
}

// UpdateStats merges the patch and stamps last_updated.
func (s *Store) UpdateStats(ctx context.Context, patch domain.StatsPatch) (*domain.Stats, error) {
	stats, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(stats)
	return s.writeStats(ctx, stats)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) insertDefaultConfig(ctx context.Context) (*domain.TradingConfig, error) {
	cfg := domain.DefaultTradingConfig()
	cfg.ID = 1

	query := `
		INSERT INTO trading_config (id, buy_threshold, sell_threshold, auto_trading, notifications, risk_level)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query,
		cfg.BuyThreshold, cfg.SellThreshold, cfg.AutoTrading, cfg.Notifications, cfg.RiskLevel,
	); err != nil {
		return nil, errors.Wrap(err, "insert default config")
	}
	return &cfg, nil
}

func (s *Store) loadStats(ctx context.Context) (*domain.Stats, error) {
	query := `
		SELECT id, overall_sentiment, overall_sentiment_label, active_trades,
		       tracked_coins, profit_loss, profit_loss_percentage, last_updated
		FROM stats
		WHERE id = 1
	`

	stats := &domain.Stats{}
	err := s.db.GetContext(ctx, stats, query)
	if err == sql.ErrNoRows {
		var tracked int
		if err := s.db.GetContext(ctx, &tracked, `SELECT COUNT(*) FROM coins WHERE is_tracked`); err != nil {
			return nil, errors.Wrap(err, "count tracked coins")
		}
		def := domain.DefaultStats(tracked)
		def.ID = 1
		return &def, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get stats")
	}
	return stats, nil
}

func (s *Store) writeStats(ctx context.Context, stats *domain.Stats) (*domain.Stats, error) {
	stats.LastUpdated = time.Now().UTC()

	query := `
		INSERT INTO stats (
			id, overall_sentiment, overall_sentiment_label, active_trades,
			tracked_coins, profit_loss, profit_loss_percentage, last_updated
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			overall_sentiment = EXCLUDED.overall_sentiment,
			overall_sentiment_label = EXCLUDED.overall_sentiment_label,
			active_trades = EXCLUDED.active_trades,
			tracked_coins = EXCLUDED.tracked_coins,
			profit_loss = EXCLUDED.profit_loss,
			profit_loss_percentage = EXCLUDED.profit_loss_percentage,
			last_updated = EXCLUDED.last_updated
	`
	if _, err := s.db.ExecContext(ctx, query,
		stats.OverallSentiment, stats.OverallSentimentLabel, stats.ActiveTrades,
		stats.TrackedCoins, stats.ProfitLoss, stats.ProfitLossPct, stats.LastUpdated,
	); err != nil {
		return nil, errors.Wrap(err, "write stats")
	}
	return stats, nil
}

func (s *Store) recomputeTrackedCoins(ctx context.Context) error {
	var tracked int
	if err := s.db.GetContext(ctx, &tracked, `SELECT COUNT(*) FROM coins WHERE is_tracked`); err != nil {
		return errors.Wrap(err, "count tracked coins")
	}
	_, err := s.UpdateStats(ctx, domain.StatsPatch{TrackedCoins: &tracked})
	return err
}
