package rest

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/metrics"
	"coinwhisperer/pkg/errors"
)

type createTradeRequest struct {
	Type       domain.TradeType `json:"type"`
	CoinSymbol string           `json:"coinSymbol"`
	Amount     decimal.Decimal  `json:"amount"`
	Price      *decimal.Decimal `json:"price"`
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	trades, err := h.store.ListTrades(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, trades)
}

// createTrade records a manual trade at the coin's current price unless an
// explicit price is supplied.
func (h *Handler) createTrade(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if !req.Type.Valid() {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput,
			"type must be %s or %s", domain.TradeBuy, domain.TradeSell))
		return
	}
	if !req.Amount.IsPositive() {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput, "amount must be positive"))
		return
	}

	coin, err := h.store.GetCoinBySymbol(r.Context(), req.CoinSymbol)
	if err != nil {
		respondError(w, err)
		return
	}
	if coin == nil {
		respondError(w, errors.Wrapf(errors.ErrNotFound, "coin %s", req.CoinSymbol))
		return
	}

	price := coin.CurrentPrice
	if req.Price != nil {
		price = *req.Price
	}

	trade := &domain.Trade{
		Type:       req.Type,
		CoinSymbol: coin.Symbol,
		Amount:     req.Amount,
		Price:      price,
	}
	created, err := h.store.CreateTrade(r.Context(), trade)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.RecordTrade(string(created.Type))
	respondSuccess(w, http.StatusCreated, created)
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
