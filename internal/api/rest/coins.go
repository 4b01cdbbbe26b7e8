package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/errors"
)

const maxSymbolLength = 10

// defaultCoinPrice is assigned to API-created coins with no price, so a
// later auto-trade never executes at zero.
var defaultCoinPrice = decimal.RequireFromString("0.0001")

type createCoinRequest struct {
	Name           string           `json:"name"`
	Symbol         string           `json:"symbol"`
	CurrentPrice   *decimal.Decimal `json:"currentPrice"`
	PriceChangePct *decimal.Decimal `json:"priceChangePercentage"`
	Image          string           `json:"image"`
	Tracked        *bool            `json:"isTracked"`
}

// listCoins serves the tracked coins only, the set the dashboard renders.
func (h *Handler) listCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := h.store.ListCoins(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	tracked := make([]domain.Coin, 0, len(coins))
	for _, coin := range coins {
		if coin.Tracked {
			tracked = append(tracked, coin)
		}
	}
	respondData(w, http.StatusOK, tracked)
}

func (h *Handler) createCoin(w http.ResponseWriter, r *http.Request) {
	var req createCoinRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	symbol := domain.NormalizeSymbol(req.Symbol)
	if symbol == "" || len(symbol) > maxSymbolLength {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput,
			"symbol must be 1-%d characters", maxSymbolLength))
		return
	}

	coin := &domain.Coin{
		Name:         strings.TrimSpace(req.Name),
		Symbol:       symbol,
		Image:        req.Image,
		CurrentPrice: defaultCoinPrice,
		Tracked:      true,
	}
	if coin.Name == "" {
		coin.Name = capitalize(symbol)
	}
	if coin.Image == "" {
		lower := strings.ToLower(symbol)
		coin.Image = "https://cryptologos.cc/logos/" + lower + "-" + lower + "-logo.png"
	}
	if req.CurrentPrice != nil {
		coin.CurrentPrice = *req.CurrentPrice
	}
	if req.PriceChangePct != nil {
		coin.PriceChangePct = *req.PriceChangePct
	}
	if req.Tracked != nil {
		coin.Tracked = *req.Tracked
	}

	created, err := h.store.CreateCoin(r.Context(), coin)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, created)
}

// capitalize upper-cases the first character and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// updateCoin accepts either a symbol or a numeric coin ID in the path.
func (h *Handler) updateCoin(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("symbol")

	symbol, err := h.resolveCoinKey(r, key)
	if err != nil {
		respondError(w, err)
		return
	}

	var patch domain.CoinPatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.store.UpdateCoin(r.Context(), symbol, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}

// resolveCoinKey maps a numeric ID to its symbol, otherwise returns the
// key unchanged.
func (h *Handler) resolveCoinKey(r *http.Request, key string) (string, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return key, nil
	}

	coins, err := h.store.ListCoins(r.Context())
	if err != nil {
		return "", err
	}
	for _, coin := range coins {
		if coin.ID == id {
			return coin.Symbol, nil
		}
	}
	return "", errors.Wrapf(errors.ErrNotFound, "coin %d", id)
}
