package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the singleton derived-aggregate record shown on the dashboard.
// It is recomputed as a side effect of coin and trade mutations and by
// analysis runs; clients never create it directly.
//
// ActiveTrades counts every trade ever created: the dashboard has no
// notion of closing a trade. ProfitLoss and ProfitLossPct are placeholders
// that are never derived from trade history.
type Stats struct {
	ID                    int64           `json:"id" db:"id"`
	OverallSentiment      float64         `json:"overallSentiment" db:"overall_sentiment"`
	OverallSentimentLabel SentimentLabel  `json:"overallSentimentLabel" db:"overall_sentiment_label"`
	ActiveTrades          int             `json:"activeTrades" db:"active_trades"`
	TrackedCoins          int             `json:"trackedCoins" db:"tracked_coins"`
	ProfitLoss            decimal.Decimal `json:"profitLoss" db:"profit_loss"`
	ProfitLossPct         decimal.Decimal `json:"profitLossPercentage" db:"profit_loss_percentage"`
	LastUpdated           time.Time       `json:"lastUpdated" db:"last_updated"`
}

// DefaultStats returns the lazily-created stats record. The tracked coin
// count is seeded from the live coin collection at creation time.
func DefaultStats(trackedCoins int) Stats {
	return Stats{
		OverallSentiment:      0.5,
		OverallSentimentLabel: SentimentNeutral,
		ActiveTrades:          0,
		TrackedCoins:          trackedCoins,
		ProfitLoss:            decimal.Zero,
		ProfitLossPct:         decimal.Zero,
		LastUpdated:           time.Now().UTC(),
	}
}

// StatsPatch is a partial update. Nil fields keep their prior value;
// LastUpdated is always stamped by the store on update.
type StatsPatch struct {
	OverallSentiment      *float64         `json:"overallSentiment"`
	OverallSentimentLabel *SentimentLabel  `json:"overallSentimentLabel"`
	ActiveTrades          *int             `json:"activeTrades"`
	TrackedCoins          *int             `json:"trackedCoins"`
	ProfitLoss            *decimal.Decimal `json:"profitLoss"`
	ProfitLossPct         *decimal.Decimal `json:"profitLossPercentage"`
}

// Apply merges the patch into the stats in place
func (p StatsPatch) Apply(s *Stats) {
	if p.OverallSentiment != nil {
		s.OverallSentiment = *p.OverallSentiment
	}
	if p.OverallSentimentLabel != nil {
		s.OverallSentimentLabel = *p.OverallSentimentLabel
	}
	if p.ActiveTrades != nil {
		s.ActiveTrades = *p.ActiveTrades
	}
	if p.TrackedCoins != nil {
		s.TrackedCoins = *p.TrackedCoins
	}
	if p.ProfitLoss != nil {
		s.ProfitLoss = *p.ProfitLoss
	}
	if p.ProfitLossPct != nil {
		s.ProfitLossPct = *p.ProfitLossPct
	}
}
