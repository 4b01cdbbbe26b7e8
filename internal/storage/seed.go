package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/logger"
)

// defaultCoins are seeded on startup so the dashboard is never empty
var defaultCoins = []domain.Coin{
	{
		Name:           "Dogecoin",
		Symbol:         "DOGE",
		CurrentPrice:   decimal.RequireFromString("0.07382"),
		PriceChangePct: decimal.RequireFromString("5.6"),
		Image:          "https://cryptologos.cc/logos/dogecoin-doge-logo.png",
		Tracked:        true,
	},
	{
		Name:           "Shiba Inu",
		Symbol:         "SHIB",
		CurrentPrice:   decimal.RequireFromString("0.00000819"),
		PriceChangePct: decimal.RequireFromString("-2.3"),
		Image:          "https://cryptologos.cc/logos/shiba-inu-shib-logo.png",
		Tracked:        true,
	},
	{
		Name:           "Pepe",
		Symbol:         "PEPE",
		CurrentPrice:   decimal.RequireFromString("0.00000104"),
		PriceChangePct: decimal.RequireFromString("12.4"),
		Image:          "https://cryptologos.cc/logos/pepe-pepe-logo.png",
		Tracked:        true,
	},
}

// SeedDefaults creates the default coin set and forces lazy creation of
// the config and stats singletons. Already-present coins are left alone,
// so reseeding is safe.
func SeedDefaults(ctx context.Context, store Store, log *logger.Logger) error {
	seeded := 0
	for _, coin := range defaultCoins {
		existing, err := store.GetCoinBySymbol(ctx, coin.Symbol)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		c := coin
		if _, err := store.CreateCoin(ctx, &c); err != nil {
			return err
		}
		seeded++
	}

	if _, err := store.GetConfig(ctx); err != nil {
		return err
	}
	if _, err := store.GetStats(ctx); err != nil {
		return err
	}

	if seeded > 0 {
		log.Infow("Seeded default coins", "count", seeded)
	}
	return nil
}
