package l1_service

import (
	"context"
	"fmt"
	"strings"

	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"

	"github.com/shopspring/decimal"
)

type ExchangeRateService interface {
	GetRate(ctx context.Context, base, quote string) (*RateResult, error)
}

type RateResult struct {
	Base       string
	Quote      string
	Rate       decimal.Decimal
	IsFallback bool
	Warning    *domain.Warning
}

type exchangeRateServiceHandler struct {
	ExchangeRateRepository repository.ExchangeRateRepository
	// zero disables the fallback
	FallbackRate decimal.Decimal
}

func NewExchangeRateService(exchangeRateRepository repository.ExchangeRateRepository, fallbackRate decimal.Decimal) ExchangeRateService {
	return exchangeRateServiceHandler{
		ExchangeRateRepository: exchangeRateRepository,
		FallbackRate:           fallbackRate,
	}
}

// GetRate returns the live rate, or the configured fallback with a
// warning attached when the lookup fails. Without a fallback the failure
// is returned as ErrExchangeRateUnavailable.
func (h exchangeRateServiceHandler) GetRate(ctx context.Context, base, quote string) (*RateResult, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	result := &RateResult{
		Base:  base,
		Quote: quote,
	}
	if base == quote {
		result.Rate = decimal.NewFromInt(1)
		return result, nil
	}

	rate, err := h.ExchangeRateRepository.GetRate(ctx, base, quote)
	if err == nil && !rate.IsPositive() {
		err = fmt.Errorf("non-positive rate %s", rate.String())
	}
	if err == nil {
		result.Rate = rate
		return result, nil
	}

	if !h.FallbackRate.IsPositive() {
		return nil, fmt.Errorf("%w: %s/%s: %v", domain.ErrExchangeRateUnavailable, base, quote, err)
	}

	logger.FromContext(ctx).Warnw(
		"exchange rate lookup failed, using fallback",
		"base", base,
		"quote", quote,
		"fallback", h.FallbackRate.String(),
		"error", err,
	)
	w := domain.NewWarning(
		domain.WarningRateLookupFailure,
		"",
		"%s/%s lookup failed (%v); using fallback rate %s", base, quote, err, h.FallbackRate.String(),
	)
	result.Rate = h.FallbackRate
	result.IsFallback = true
	result.Warning = &w
	return result, nil
}
