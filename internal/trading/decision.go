// Package trading implements the sentiment-threshold trade decision rule.
package trading

import (
	"time"

	"github.com/shopspring/decimal"

	"coinwhisperer/internal/domain"
)

// BaseAmount is the base trade size in currency units before the
// sentiment multiplier is applied.
var BaseAmount = decimal.NewFromInt(100)

// Decide evaluates a sentiment score against the configured thresholds and
// returns the trade to execute, or nil when the score sits between them.
//
// A score at or above buyThreshold produces a BUY sized by the score
// itself; a score at or below sellThreshold produces a SELL sized by the
// score's distance from 1. For thresholds inside (0,1) and scores in [0,1]
// the resulting amount is always positive. The trade records the threshold
// that was actually crossed and executes at the coin's current price; the
// caller decides whether to persist it.
func Decide(coin *domain.Coin, sentimentScore, buyThreshold, sellThreshold float64) *domain.Trade {
	var (
		tradeType  domain.TradeType
		multiplier float64
		threshold  float64
	)

	switch {
	case sentimentScore >= buyThreshold:
		tradeType = domain.TradeBuy
		multiplier = sentimentScore
		threshold = buyThreshold
	case sentimentScore <= sellThreshold:
		tradeType = domain.TradeSell
		multiplier = 1 - sentimentScore
		threshold = sellThreshold
	default:
		return nil
	}

	return &domain.Trade{
		Type:           tradeType,
		CoinSymbol:     coin.Symbol,
		Amount:         BaseAmount.Mul(decimal.NewFromFloat(multiplier)),
		Price:          coin.CurrentPrice,
		SentimentScore: sentimentScore,
		Threshold:      threshold,
		Timestamp:      time.Now().UTC(),
	}
}
