package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType defines the direction of a simulated trade
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Valid checks if the trade type is valid
func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// String returns string representation
func (t TradeType) String() string {
	return string(t)
}

// Trade is a simulated trade triggered by the decision rule or entered
// manually. Immutable once created; IDs are assigned sequentially by the
// store.
type Trade struct {
	ID             int64           `json:"id" db:"id"`
	Type           TradeType       `json:"type" db:"type"`
	CoinSymbol     string          `json:"coinSymbol" db:"coin_symbol"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Price          decimal.Decimal `json:"price" db:"price"`
	SentimentScore float64         `json:"sentimentScore" db:"sentiment_score"`
	Threshold      float64         `json:"threshold" db:"threshold"`
	Timestamp      time.Time       `json:"timestamp" db:"executed_at"`
}
