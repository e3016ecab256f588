package integration_tests

import (
	"context"
	"fmt"

	"stockalloc/internal/domain"
	"stockalloc/internal/repository"
	"stockalloc/internal/util"

	"github.com/shopspring/decimal"
)

// scriptedQuote is what the quote collaborator answers for one symbol on
// one simulated day. A nil price or fundamental is absent data.
type scriptedQuote struct {
	Price *float64
	ROE   *float64
	PER   *float64
	Err   error
}

type scriptedQuoteRepositoryHandler struct {
	quotes map[string]scriptedQuote
}

func NewScriptedQuoteRepository(quotes map[string]scriptedQuote) repository.QuoteRepository {
	return scriptedQuoteRepositoryHandler{quotes: quotes}
}

func (h scriptedQuoteRepositoryHandler) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	q, ok := h.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrQuoteNotFound, symbol)
	}
	if q.Err != nil {
		return nil, q.Err
	}
	out := &domain.Quote{
		Symbol:          symbol,
		ReturnOnEquity:  q.ROE,
		PriceToEarnings: q.PER,
	}
	if q.Price != nil {
		out.UnitPrice = util.DecimalPointer(decimal.NewFromFloat(*q.Price))
	}
	return out, nil
}

type scriptedExchangeRateRepositoryHandler struct {
	rate decimal.Decimal
	err  error
}

func NewScriptedExchangeRateRepository(rate float64, err error) repository.ExchangeRateRepository {
	return scriptedExchangeRateRepositoryHandler{rate: decimal.NewFromFloat(rate), err: err}
}

func (h scriptedExchangeRateRepositoryHandler) GetRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	if h.err != nil {
		return decimal.Zero, h.err
	}
	return h.rate, nil
}
