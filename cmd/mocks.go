package cmd

import (
	"context"
	"fmt"
	"strings"

	"stockalloc/internal/domain"
	"stockalloc/internal/repository"
	"stockalloc/internal/util"

	"github.com/shopspring/decimal"
)

// static collaborators used offline and when STOCKALLOC_ENV=test. quotes
// come from the configured universe and the rate is the fallback rate,
// so a run never touches the network

type staticQuoteRepositoryHandler struct {
	quotes map[string]util.UniverseEntry
}

func NewStaticQuoteRepository(universe []util.UniverseEntry) repository.QuoteRepository {
	quotes := map[string]util.UniverseEntry{}
	for _, u := range universe {
		quotes[strings.ToUpper(strings.TrimSpace(u.Symbol))] = u
	}
	return staticQuoteRepositoryHandler{quotes: quotes}
}

func (h staticQuoteRepositoryHandler) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	u, ok := h.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrQuoteNotFound, symbol)
	}
	q := &domain.Quote{
		Symbol:          symbol,
		ReturnOnEquity:  u.ReturnOnEquity,
		PriceToEarnings: u.PriceToEarnings,
	}
	if u.Price != nil {
		q.UnitPrice = util.DecimalPointer(decimal.NewFromFloat(*u.Price))
	}
	return q, nil
}

type staticExchangeRateRepositoryHandler struct {
	rate decimal.Decimal
}

func NewStaticExchangeRateRepository(rate decimal.Decimal) repository.ExchangeRateRepository {
	return staticExchangeRateRepositoryHandler{rate: rate}
}

func (h staticExchangeRateRepositoryHandler) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	if !h.rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("no static rate configured for %s/%s", base, quote)
	}
	return h.rate, nil
}
