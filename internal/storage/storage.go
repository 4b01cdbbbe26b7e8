// Package storage defines the persistence contract shared by the three
// store backends (in-memory, Redis document store, PostgreSQL).
//
// Contract notes, uniform across backends:
//   - Reads return (nil, nil) when the record does not exist; only
//     update-by-identity operations fail with errors.ErrNotFound.
//   - Coin symbol uniqueness on create is enforced by the calling layer,
//     which checks GetCoinBySymbol first; post external-ID uniqueness is
//     enforced by the store (errors.ErrDuplicatePost).
//   - The config and stats singletons are created lazily with defaults on
//     first read. GetStats touches LastUpdated on every read and
//     UpdateStats always stamps it.
//   - CreateCoin, tracked-flag changes via UpdateCoin, and CreateTrade
//     recompute the derived stats counters as a side effect.
package storage

import (
	"context"

	"coinwhisperer/internal/domain"
)

// Store is the persistence interface over the five entity collections
type Store interface {
	// Coins
	CreateCoin(ctx context.Context, coin *domain.Coin) (*domain.Coin, error)
	GetCoinBySymbol(ctx context.Context, symbol string) (*domain.Coin, error)
	UpdateCoin(ctx context.Context, symbol string, patch domain.CoinPatch) (*domain.Coin, error)
	ListCoins(ctx context.Context) ([]domain.Coin, error)

	// Posts, newest-first
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByExternalID(ctx context.Context, externalID string) (*domain.Post, error)
	ListPosts(ctx context.Context, limit int, coinSymbol string) ([]domain.Post, error)

	// Trades, newest-first
	CreateTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error)
	ListTrades(ctx context.Context, limit int) ([]domain.Trade, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// Config singleton
	GetConfig(ctx context.Context) (*domain.TradingConfig, error)
	UpdateConfig(ctx context.Context, patch domain.TradingConfigPatch) (*domain.TradingConfig, error)

	// Stats singleton
	GetStats(ctx context.Context) (*domain.Stats, error)
	UpdateStats(ctx context.Context, patch domain.StatsPatch) (*domain.Stats, error)

	Close() error
}

// DefaultListLimit bounds list responses when the caller passes limit <= 0
const DefaultListLimit = 50
