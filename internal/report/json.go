package report

import (
	"encoding/json"
	"fmt"
	"io"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
	"stockalloc/internal/util"

	"github.com/shopspring/decimal"
)

type rateView struct {
	Base       string          `json:"base"`
	Quote      string          `json:"quote"`
	Rate       decimal.Decimal `json:"rate"`
	IsFallback bool            `json:"isFallback"`
}

type candidateView struct {
	Rank            int                `json:"rank"`
	Symbol          string             `json:"symbol"`
	ReturnOnEquity  float64            `json:"roe"`
	PriceToEarnings float64            `json:"per"`
	NormalizedROE   float64            `json:"normRoe"`
	NormalizedPER   float64            `json:"normPer"`
	Score           float64            `json:"score"`
	Weight          float64            `json:"weight"`
	UnitPrice       *decimal.Decimal   `json:"unitPrice"`
	Quality         domain.DataQuality `json:"quality"`
}

type entryView struct {
	Rank       int                `json:"rank"`
	Symbol     string             `json:"symbol"`
	Score      float64            `json:"score"`
	Weight     float64            `json:"weight"`
	UnitPrice  *decimal.Decimal   `json:"unitPrice"`
	UnitsToBuy int64              `json:"unitsToBuy"`
	Allocated  decimal.Decimal    `json:"allocated"`
	Spent      decimal.Decimal    `json:"spent"`
	SpentLocal decimal.Decimal    `json:"spentLocal"`
	SkipReason domain.SkipReason  `json:"skipReason,omitempty"`
	Quality    domain.DataQuality `json:"quality"`
}

type allocationResultView struct {
	Mode          domain.AllocationMode `json:"mode"`
	Budget        decimal.Decimal       `json:"budget"`
	Purchases     []entryView           `json:"purchases"`
	Skipped       []entryView           `json:"skipped"`
	TotalSpent    decimal.Decimal       `json:"totalSpent"`
	Leftover      decimal.Decimal       `json:"leftover"`
	LeftoverLocal decimal.Decimal       `json:"leftoverLocal"`
}

type positionView struct {
	Symbol               string          `json:"symbol"`
	UnitsHeld            int64           `json:"unitsHeld"`
	PurchaseUnitPrice    decimal.Decimal `json:"purchaseUnitPrice"`
	PurchaseDate         string          `json:"purchaseDate"`
	PurchaseROE          float64         `json:"roeAtPurchase"`
	PurchasePER          float64         `json:"perAtPurchase"`
	PurchaseScore        float64         `json:"scoreAtPurchase"`
	PurchaseExchangeRate decimal.Decimal `json:"purchaseExchangeRate"`
}

type tradeView struct {
	Side          domain.TradeSide `json:"side"`
	Symbol        string           `json:"symbol"`
	Units         int64            `json:"units"`
	ExpectedPrice *decimal.Decimal `json:"expectedPrice"`
}

type allocationView struct {
	RunID         string               `json:"runId"`
	Date          string               `json:"date"`
	BaseCurrency  string               `json:"baseCurrency"`
	LocalCurrency string               `json:"localCurrency"`
	ExchangeRate  rateView             `json:"exchangeRate"`
	BudgetLocal   decimal.Decimal      `json:"budgetLocal"`
	BudgetBase    decimal.Decimal      `json:"budgetBase"`
	Degenerate    bool                 `json:"degenerate"`
	Ranked        []candidateView      `json:"ranked"`
	Allocation    allocationResultView `json:"allocation"`
	Positions     []positionView       `json:"positions"`
	Warnings      []domain.Warning     `json:"warnings"`
	Profile       *domain.Profile      `json:"profile"`
}

type rebalanceView struct {
	RunID                 string                      `json:"runId"`
	Date                  string                      `json:"date"`
	BaseCurrency          string                      `json:"baseCurrency"`
	LocalCurrency         string                      `json:"localCurrency"`
	ExchangeRate          rateView                    `json:"exchangeRate"`
	AdditionalBudgetLocal decimal.Decimal             `json:"additionalBudgetLocal"`
	AdditionalBudgetBase  decimal.Decimal             `json:"additionalBudgetBase"`
	Degenerate            bool                        `json:"degenerate"`
	Ranked                []candidateView             `json:"ranked"`
	TargetSymbols         []string                    `json:"targetSymbols"`
	ToBuy                 allocationResultView        `json:"toBuy"`
	ToSell                []positionView              `json:"toSell"`
	Retained              []positionView              `json:"retained"`
	UnrealizedPnL         map[string]*decimal.Decimal `json:"unrealizedPnl"`
	TotalUnrealizedPnL    decimal.Decimal             `json:"totalUnrealizedPnl"`
	PnLComplete           bool                        `json:"pnlComplete"`
	Trades                []tradeView                 `json:"trades"`
	UpdatedPositions      []positionView              `json:"updatedPositions"`
	Warnings              []domain.Warning            `json:"warnings"`
	Profile               *domain.Profile             `json:"profile"`
}

func writeJSON(w io.Writer, v interface{}) error {
	bytes, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bytes))
	return err
}

func newAllocationView(resp *app.AllocateResponse) allocationView {
	return allocationView{
		RunID:         resp.Run.ID.String(),
		Date:          resp.Run.Date.Format(util.DateLayout),
		BaseCurrency:  resp.BaseCurrency,
		LocalCurrency: resp.LocalCurrency,
		ExchangeRate: rateView{
			Base:       resp.Rate.Base,
			Quote:      resp.Rate.Quote,
			Rate:       resp.Rate.Rate,
			IsFallback: resp.Rate.IsFallback,
		},
		BudgetLocal: resp.BudgetLocal,
		BudgetBase:  resp.BudgetBase,
		Degenerate:  resp.Scored.Degenerate,
		Ranked:      newCandidateViews(resp.Scored),
		Allocation:  newAllocationResultView(resp.Allocation, resp.Rate.Rate),
		Positions:   newPositionViews(resp.Positions),
		Warnings:    resp.Warnings,
		Profile:     resp.Run.Profile,
	}
}

func newRebalanceView(resp *app.RebalanceResponse) rebalanceView {
	result := resp.Rebalance
	total, complete := result.TotalUnrealizedPnL()

	trades := []tradeView{}
	for _, t := range result.ProposedTrades() {
		trades = append(trades, tradeView{
			Side:          t.Side,
			Symbol:        t.Symbol,
			Units:         t.Units,
			ExpectedPrice: t.ExpectedPrice,
		})
	}

	return rebalanceView{
		RunID:         resp.Run.ID.String(),
		Date:          resp.Run.Date.Format(util.DateLayout),
		BaseCurrency:  resp.BaseCurrency,
		LocalCurrency: resp.LocalCurrency,
		ExchangeRate: rateView{
			Base:       resp.Rate.Base,
			Quote:      resp.Rate.Quote,
			Rate:       resp.Rate.Rate,
			IsFallback: resp.Rate.IsFallback,
		},
		AdditionalBudgetLocal: resp.AdditionalBudgetLocal,
		AdditionalBudgetBase:  resp.AdditionalBudgetBase,
		Degenerate:            resp.Scored.Degenerate,
		Ranked:                newCandidateViews(resp.Scored),
		TargetSymbols:         result.TargetSymbols,
		ToBuy:                 newAllocationResultView(result.ToBuy, resp.Rate.Rate),
		ToSell:                newPositionViews(result.ToSell),
		Retained:              newPositionViews(result.Retained),
		UnrealizedPnL:         result.UnrealizedPnL,
		TotalUnrealizedPnL:    total,
		PnLComplete:           complete,
		Trades:                trades,
		UpdatedPositions:      newPositionViews(resp.UpdatedPositions),
		Warnings:              resp.Warnings,
		Profile:               resp.Run.Profile,
	}
}

func newCandidateViews(scored domain.ScoredSet) []candidateView {
	out := []candidateView{}
	for _, c := range scored.Candidates {
		out = append(out, candidateView{
			Rank:            c.Rank,
			Symbol:          c.Symbol,
			ReturnOnEquity:  c.ReturnOnEquity,
			PriceToEarnings: c.PriceToEarnings,
			NormalizedROE:   c.NormalizedROE,
			NormalizedPER:   c.NormalizedPER,
			Score:           c.Score,
			Weight:          c.Weight,
			UnitPrice:       c.UnitPrice,
			Quality:         c.Quality,
		})
	}
	return out
}

func newAllocationResultView(allocation domain.AllocationResult, rate decimal.Decimal) allocationResultView {
	toViews := func(entries []domain.AllocationEntry) []entryView {
		out := []entryView{}
		for _, e := range entries {
			out = append(out, entryView{
				Rank:       e.Rank,
				Symbol:     e.Symbol,
				Score:      e.Score,
				Weight:     e.Weight,
				UnitPrice:  e.UnitPrice,
				UnitsToBuy: e.UnitsToBuy,
				Allocated:  e.Allocated.Round(2),
				Spent:      e.Spent,
				SpentLocal: toLocal(e.Spent, rate),
				SkipReason: e.SkipReason,
				Quality:    e.Quality,
			})
		}
		return out
	}
	return allocationResultView{
		Mode:          allocation.Mode,
		Budget:        allocation.Budget,
		Purchases:     toViews(allocation.Purchases()),
		Skipped:       toViews(allocation.Skipped()),
		TotalSpent:    allocation.TotalSpent(),
		Leftover:      allocation.Leftover,
		LeftoverLocal: toLocal(allocation.Leftover, rate),
	}
}

func newPositionViews(positions []domain.Position) []positionView {
	out := []positionView{}
	for _, p := range positions {
		out = append(out, positionView{
			Symbol:               p.Symbol,
			UnitsHeld:            p.UnitsHeld,
			PurchaseUnitPrice:    p.PurchaseUnitPrice,
			PurchaseDate:         p.PurchaseDate.Format(util.DateLayout),
			PurchaseROE:          p.PurchaseROE,
			PurchasePER:          p.PurchasePER,
			PurchaseScore:        p.PurchaseScore,
			PurchaseExchangeRate: p.PurchaseExchangeRate,
		})
	}
	return out
}
