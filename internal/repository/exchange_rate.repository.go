package repository

import (
	"context"
	"fmt"
	"strings"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/forex"
	"github.com/shopspring/decimal"
)

// ExchangeRateRepository returns how many units of quote one unit of base
// buys.
type ExchangeRateRepository interface {
	GetRate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

type yahooExchangeRateRepositoryHandler struct {
	getPair func(symbol string) (*finance.ForexPair, error)
}

func NewYahooExchangeRateRepository() ExchangeRateRepository {
	return yahooExchangeRateRepositoryHandler{
		getPair: forex.Get,
	}
}

// forexSymbol builds the Yahoo pair symbol, e.g. USDJPY=X
func forexSymbol(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote) + "=X"
}

func (h yahooExchangeRateRepositoryHandler) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	symbol := forexSymbol(base, quote)
	pair, err := h.getPair(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get forex quote %s: %w", symbol, err)
	}
	if pair == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrQuoteNotFound, symbol)
	}
	if !isPositive(pair.RegularMarketPrice) {
		return decimal.Zero, fmt.Errorf("invalid rate %f for %s", pair.RegularMarketPrice, symbol)
	}
	return decimal.NewFromFloat(pair.RegularMarketPrice), nil
}
