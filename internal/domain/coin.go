package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Coin is a tracked (or untracked) cryptocurrency on the dashboard.
// Identity is the symbol, unique under case-insensitive comparison.
type Coin struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Symbol         string          `json:"symbol" db:"symbol"`
	CurrentPrice   decimal.Decimal `json:"currentPrice" db:"current_price"`
	PriceChangePct decimal.Decimal `json:"priceChangePercentage" db:"price_change_percentage"`
	Image          string          `json:"image" db:"image"`
	Tracked        bool            `json:"isTracked" db:"is_tracked"`
}

// NormalizeSymbol canonicalizes a coin symbol for storage and comparison
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CoinPatch is a partial update to a coin. Nil fields keep their prior value.
type CoinPatch struct {
	Name           *string          `json:"name"`
	CurrentPrice   *decimal.Decimal `json:"currentPrice"`
	PriceChangePct *decimal.Decimal `json:"priceChangePercentage"`
	Image          *string          `json:"image"`
	Tracked        *bool            `json:"isTracked"`
}

// Apply merges the patch into a coin in place and reports whether the
// tracked flag changed, which drives the stats recompute side effect.
func (p CoinPatch) Apply(c *Coin) (trackedChanged bool) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.CurrentPrice != nil {
		c.CurrentPrice = *p.CurrentPrice
	}
	if p.PriceChangePct != nil {
		c.PriceChangePct = *p.PriceChangePct
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	if p.Tracked != nil && *p.Tracked != c.Tracked {
		c.Tracked = *p.Tracked
		trackedChanged = true
	}
	return trackedChanged
}
