package app

import (
	"context"
	"fmt"
	"time"

	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"
	l1_service "stockalloc/internal/service/l1"
	l2_service "stockalloc/internal/service/l2"

	"github.com/shopspring/decimal"
)

type AllocateHandler struct {
	MarketDataService        l1_service.MarketDataService
	ExchangeRateService      l1_service.ExchangeRateService
	PositionRecordRepository repository.PositionRecordRepository
	BaseCurrency             string
	LocalCurrency            string
	Now                      func() time.Time
}

type AllocateRequest struct {
	Symbols []string
	// Budget is in local currency
	Budget       decimal.Decimal
	RoeWeight    float64
	MaxPositions int
	Mode         domain.AllocationMode
	Expression   string
	// RecordPath receives the position record of the purchases. Empty
	// skips the export.
	RecordPath string
}

type AllocateResponse struct {
	Run           Run
	BaseCurrency  string
	LocalCurrency string
	Rate          l1_service.RateResult
	BudgetLocal   decimal.Decimal
	BudgetBase    decimal.Decimal
	Scored        domain.ScoredSet
	Allocation    domain.AllocationResult
	Positions     []domain.Position
	Warnings      []domain.Warning
}

// Allocate scores the universe and spends the budget on the top ranked
// candidates. The purchases are exported as a position record when a
// record path is given and something was bought.
func (h AllocateHandler) Allocate(ctx context.Context, req AllocateRequest) (*AllocateResponse, error) {
	if req.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must be >= 0, got %s", domain.ErrInvalidInput, req.Budget.String())
	}

	ctx, run, endRun := startRun(ctx, h.now(), "allocate")
	defer endRun()
	log := logger.FromContext(ctx)

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

	budgetBase := toBaseCurrency(req.Budget, universe.Rate.Rate)

	_, endSpan := run.Profile.StartNewSpan("allocate")
	allocation, err := l2_service.Allocate(l2_service.AllocateInput{
		Ranked:       *universe.Scored,
		Budget:       budgetBase,
		MaxPositions: req.MaxPositions,
		Mode:         req.Mode,
	})
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate budget: %w", err)
	}

	positions := positionsFromPurchases(*allocation, *universe.Scored, run.Date, universe.Rate.Rate)

	switch {
	case req.RecordPath == "":
	case len(positions) == 0:
		// an existing record from an earlier run is left untouched
		log.Warnw("nothing purchased; position record not written", "path", req.RecordPath)
	default:
		_, endSpan := run.Profile.StartNewSpan("write record")
		err = h.PositionRecordRepository.WriteFile(req.RecordPath, positions)
		endSpan()
		if err != nil {
			return nil, fmt.Errorf("failed to export position record: %w", err)
		}
		log.Infow("exported position record", "path", req.RecordPath, "positions", len(positions))
	}

	log.Infow(
		"allocated budget",
		"mode", allocation.Mode,
		"budget", budgetBase.String(),
		"spent", allocation.TotalSpent().String(),
		"purchases", len(allocation.Purchases()),
	)

	return &AllocateResponse{
		Run:           run,
		BaseCurrency:  h.BaseCurrency,
		LocalCurrency: h.LocalCurrency,
		Rate:          universe.Rate,
		BudgetLocal:   req.Budget,
		BudgetBase:    budgetBase,
		Scored:        *universe.Scored,
		Allocation:    *allocation,
		Positions:     positions,
		Warnings:      domain.DedupeWarnings(append(universe.Warnings, allocation.Warnings...)),
	}, nil
}

func (h AllocateHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
