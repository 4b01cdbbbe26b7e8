// Package events defines the realtime event envelope pushed to dashboard
// clients and, optionally, mirrored to Kafka.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"coinwhisperer/internal/domain"
)

// Event types pushed over the realtime channel.
const (
	TypeConnection = "connection"
	TypeNewPost    = "new_tweet"
	TypeNewTrade   = "new_trade"
)

// Event is the envelope every realtime message is wrapped in.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ConnectionData greets a freshly connected client.
type ConnectionData struct {
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
}

// NewPostData announces a scored post.
type NewPostData struct {
	ExternalID string  `json:"tweetId"`
	CoinSymbol string  `json:"coinTag"`
	Sentiment  float64 `json:"sentiment"`
}

// NewTradeData announces an executed trade.
type NewTradeData struct {
	Trade TradeData `json:"trade"`
}

// TradeData is the wire shape of a trade inside a new_trade event.
type TradeData struct {
	ID         int64            `json:"coinId"`
	Type       domain.TradeType `json:"type"`
	Amount     decimal.Decimal  `json:"amount"`
	Price      decimal.Decimal  `json:"price"`
	CoinSymbol string           `json:"coinSymbol"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewPostEvent builds a new_tweet event from a stored post.
func NewPostEvent(post *domain.Post) Event {
	return Event{
		Type: TypeNewPost,
		Data: NewPostData{
			ExternalID: post.ExternalID,
			CoinSymbol: post.CoinSymbol,
			Sentiment:  post.SentimentScore,
		},
	}
}

// NewTradeEvent builds a new_trade event from a stored trade.
func NewTradeEvent(trade *domain.Trade) Event {
	return Event{
		Type: TypeNewTrade,
		Data: NewTradeData{
			Trade: TradeData{
				ID:         trade.ID,
				Type:       trade.Type,
				Amount:     trade.Amount,
				Price:      trade.Price,
				CoinSymbol: trade.CoinSymbol,
				Timestamp:  trade.Timestamp,
			},
		},
	}
}

// Broadcaster delivers events to connected clients. Implementations must
// not block the caller on slow consumers.
type Broadcaster interface {
	Broadcast(event Event)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(Event)

func (f BroadcasterFunc) Broadcast(event Event) { f(event) }

// Multi fans an event out to several broadcasters.
type Multi []Broadcaster

func (m Multi) Broadcast(event Event) {
	for _, b := range m {
		b.Broadcast(event)
	}
}
