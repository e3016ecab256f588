package app

import (
	"context"
	"fmt"
	"time"

	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"
	l1_service "stockalloc/internal/service/l1"
	l3_service "stockalloc/internal/service/l3"

	"github.com/shopspring/decimal"
)

type RebalanceHandler struct {
	MarketDataService        l1_service.MarketDataService
	ExchangeRateService      l1_service.ExchangeRateService
	PositionRecordRepository repository.PositionRecordRepository
	BaseCurrency             string
	LocalCurrency            string
	Now                      func() time.Time
}

type RebalanceRequest struct {
	Symbols []string
	// RecordPath is the previously exported position record
	RecordPath string
	// AdditionalBudget is in local currency
	AdditionalBudget decimal.Decimal
	RoeWeight        float64
	TopN             int
	Mode             domain.AllocationMode
	Expression       string
	// OutputPath receives the updated record. Empty skips the write.
	OutputPath string
}

type RebalanceResponse struct {
	Run                   Run
	BaseCurrency          string
	LocalCurrency         string
	Rate                  l1_service.RateResult
	AdditionalBudgetLocal decimal.Decimal
	AdditionalBudgetBase  decimal.Decimal
	Held                  domain.Holdings
	Scored                domain.ScoredSet
	Rebalance             domain.RebalanceResult
	// UpdatedPositions assumes every proposed trade is executed: retained
	// positions plus the new purchases
	UpdatedPositions []domain.Position
	Warnings         []domain.Warning
}

// Rebalance reads the held positions, re-scores the universe and proposes
// buy and sell trades. A malformed record aborts before anything is
// fetched.
func (h RebalanceHandler) Rebalance(ctx context.Context, req RebalanceRequest) (*RebalanceResponse, error) {
	if req.AdditionalBudget.IsNegative() {
		return nil, fmt.Errorf("%w: additional budget must be >= 0, got %s", domain.ErrInvalidInput, req.AdditionalBudget.String())
	}

	ctx, run, endRun := startRun(ctx, h.now(), "rebalance")
	defer endRun()
	log := logger.FromContext(ctx)

	_, endSpan := run.Profile.StartNewSpan("read record")
	positions, err := h.PositionRecordRepository.ReadFile(req.RecordPath)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to read position record %s: %w", req.RecordPath, err)
	}
	held := domain.Holdings(positions)
	log.Infow("read position record", "path", req.RecordPath, "positions", len(held))

	universe, err := scoreUniverse(ctx, h.MarketDataService, h.ExchangeRateService, scoreUniverseInput{
		Symbols:       req.Symbols,
		RoeWeight:     req.RoeWeight,
		Expression:    req.Expression,
		BaseCurrency:  h.BaseCurrency,
		LocalCurrency: h.LocalCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to score universe: %w", err)
	}
	warnings := universe.Warnings

	outside := []string{}
	for _, symbol := range held.HeldSymbols() {
		if _, ok := universe.Scored.Get(symbol); !ok {
			outside = append(outside, symbol)
		}
	}
	heldPrices := map[string]decimal.Decimal{}
	if len(outside) > 0 {
		_, endSpan := run.Profile.StartNewSpan("fetch held prices")
		priced, err := h.MarketDataService.FetchPrices(ctx, outside)
		endSpan()
		if err != nil {
			return nil, fmt.Errorf("failed to price held positions: %w", err)
		}
		heldPrices = priced.Prices
		warnings = append(warnings, priced.Warnings...)
	}

	budgetBase := toBaseCurrency(req.AdditionalBudget, universe.Rate.Rate)

	_, endSpan = run.Profile.StartNewSpan("rebalance")
	result, err := l3_service.Rebalance(l3_service.RebalanceInput{
		Ranked:              *universe.Scored,
		Held:                held,
		TopN:                req.TopN,
		AdditionalBudget:    budgetBase,
		Mode:                req.Mode,
		CurrentExchangeRate: universe.Rate.Rate,
		HeldPrices:          heldPrices,
	})
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to rebalance: %w", err)
	}
	warnings = append(warnings, result.Warnings...)
	warnings = append(warnings, result.ToBuy.Warnings...)

	updated := append([]domain.Position{}, result.Retained...)
	updated = append(updated, positionsFromPurchases(result.ToBuy, *universe.Scored, run.Date, universe.Rate.Rate)...)

	if req.OutputPath != "" {
		_, endSpan := run.Profile.StartNewSpan("write record")
		err = h.PositionRecordRepository.WriteFile(req.OutputPath, updated)
		endSpan()
		if err != nil {
			return nil, fmt.Errorf("failed to write updated position record: %w", err)
		}
		log.Infow("wrote updated position record", "path", req.OutputPath, "positions", len(updated))
	}

	log.Infow(
		"proposed trades",
		"targets", result.TargetSymbols,
		"buys", len(result.ToBuy.Purchases()),
		"sells", len(result.ToSell),
	)

	return &RebalanceResponse{
		Run:                   run,
		BaseCurrency:          h.BaseCurrency,
		LocalCurrency:         h.LocalCurrency,
		Rate:                  universe.Rate,
		AdditionalBudgetLocal: req.AdditionalBudget,
		AdditionalBudgetBase:  budgetBase,
		Held:                  held,
		Scored:                *universe.Scored,
		Rebalance:             *result,
		UpdatedPositions:      updated,
		Warnings:              domain.DedupeWarnings(warnings),
	}, nil
}

func (h RebalanceHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
