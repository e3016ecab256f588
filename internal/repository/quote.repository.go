package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"stockalloc/internal/domain"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"
)

var ErrQuoteNotFound = errors.New("quote not found")

// QuoteRepository is the price/fundamentals collaborator. Any field of
// the returned quote may be absent; an error means nothing could be
// fetched for the symbol.
type QuoteRepository interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

type yahooQuoteRepositoryHandler struct {
	getEquity func(symbol string) (*finance.Equity, error)
}

func NewYahooQuoteRepository() QuoteRepository {
	return yahooQuoteRepositoryHandler{
		getEquity: equity.Get,
	}
}

func (h yahooQuoteRepositoryHandler) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	eq, err := h.getEquity(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get equity quote for %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, symbol)
	}

	return quoteFromEquity(symbol, eq), nil
}

// quoteFromEquity maps the Yahoo equity payload. Yahoo reports missing
// numbers as 0, so non-positive values are treated as absent. ROE is
// derived as trailing EPS over book value per share.
func quoteFromEquity(symbol string, eq *finance.Equity) *domain.Quote {
	q := &domain.Quote{
		Symbol: symbol,
	}
	if isPositive(eq.RegularMarketPrice) {
		p := decimal.NewFromFloat(eq.RegularMarketPrice)
		q.UnitPrice = &p
	}
	if isPositive(eq.TrailingPE) {
		pe := eq.TrailingPE
		q.PriceToEarnings = &pe
	}
	if isPositive(eq.BookValue) && eq.EpsTrailingTwelveMonths != 0 && isFinite(eq.EpsTrailingTwelveMonths) {
		roe := eq.EpsTrailingTwelveMonths / eq.BookValue * 100
		q.ReturnOnEquity = &roe
	}
	return q
}

func isPositive(f float64) bool {
	return isFinite(f) && f > 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
