package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
	l1_service "stockalloc/internal/service/l1"
	"stockalloc/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_formatMoney(t *testing.T) {
	require.Equal(t, "$1,000.00", formatMoney(decimal.NewFromInt(1000), "USD"))
	require.Equal(t, "$185.30", formatMoney(decimal.NewFromFloat(185.3), "USD"))
	require.Equal(t, "¥150,000", formatMoney(decimal.NewFromInt(150000), "JPY"))
	require.Equal(t, "12.50 ZZZ", formatMoney(decimal.NewFromFloat(12.5), "ZZZ"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, f)

	_, err = ParseFormat("xml")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func allocateResponse() *app.AllocateResponse {
	price := decimal.NewFromInt(100)
	profile, end := domain.NewProfile()
	end()
	w := domain.NewWarning(domain.WarningRateLookupFailure, "", "USD/JPY lookup failed; using fallback rate 152.8")

	return &app.AllocateResponse{
		Run: app.Run{
			ID:      uuid.MustParse("6f1c2a1e-7d8b-4a52-9c43-1b2f0e5d7a10"),
			Date:    util.NewDate(2025, 10, 1),
			Profile: profile,
		},
		BaseCurrency:  "USD",
		LocalCurrency: "JPY",
		Rate: l1_service.RateResult{
			Base:       "USD",
			Quote:      "JPY",
			Rate:       decimal.NewFromFloat(152.8),
			IsFallback: true,
			Warning:    &w,
		},
		BudgetLocal: decimal.NewFromInt(50000),
		BudgetBase:  decimal.NewFromFloat(327.22),
		Scored: domain.ScoredSet{
			Candidates: []domain.ScoredCandidate{
				{
					Candidate: domain.Candidate{Symbol: "NVDA", ReturnOnEquity: 0, PriceToEarnings: 52, UnitPrice: &price, Quality: domain.DataQuality{DefaultROE: true}},
					Score:     0.4,
					Weight:    1,
					Rank:      1,
				},
				{
					Candidate: domain.Candidate{Symbol: "ASML", ReturnOnEquity: 10, PriceToEarnings: 100, Quality: domain.DataQuality{MissingPrice: true}},
					Rank:      2,
				},
			},
		},
		Allocation: domain.AllocationResult{
			Mode:   domain.AllocationModeGreedyFill,
			Budget: decimal.NewFromFloat(327.22),
			Entries: []domain.AllocationEntry{
				{Symbol: "NVDA", Rank: 1, Score: 0.4, Weight: 1, UnitsToBuy: 3, UnitPrice: &price, Spent: decimal.NewFromInt(300), Quality: domain.DataQuality{DefaultROE: true}},
				{Symbol: "ASML", Rank: 2, SkipReason: domain.SkipReasonPriceUnavailable, Quality: domain.DataQuality{MissingPrice: true}},
			},
			Leftover: decimal.NewFromFloat(27.22),
		},
		Warnings: []domain.Warning{w},
	}
}

func TestRenderAllocation(t *testing.T) {
	t.Run("table flags fallbacks and defaults", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderAllocation(&buf, allocateResponse(), FormatTable))
		out := buf.String()

		require.Contains(t, out, "run 6f1c2a1e-7d8b-4a52-9c43-1b2f0e5d7a10 (2025-10-01)")
		require.Contains(t, out, "exchange rate USD/JPY: 152.8  [FALLBACK]")
		require.Contains(t, out, "budget: ¥50,000 -> $327.22")
		require.Contains(t, out, "default-roe")
		require.Contains(t, out, "$300.00")
		require.Contains(t, out, "¥45,840")
		require.Contains(t, out, "PriceUnavailable")
		require.Contains(t, out, "no-price")
		require.Contains(t, out, "[RateLookupFailure]")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderAllocation(&buf, allocateResponse(), FormatJSON))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Equal(t, "2025-10-01", decoded["date"])
		require.Equal(t, true, decoded["exchangeRate"].(map[string]interface{})["isFallback"])

		allocation := decoded["allocation"].(map[string]interface{})
		require.Len(t, allocation["purchases"], 1)
		require.Len(t, allocation["skipped"], 1)
		require.Equal(t, "300", allocation["totalSpent"])

		purchase := allocation["purchases"].([]interface{})[0].(map[string]interface{})
		require.Equal(t, true, purchase["quality"].(map[string]interface{})["defaultRoe"])
		require.Len(t, decoded["warnings"], 1)
	})
}

func TestRenderRebalance(t *testing.T) {
	price := decimal.NewFromInt(200)
	pnl := decimal.NewFromInt(1500)
	intc := domain.Position{
		Symbol:               "INTC",
		UnitsHeld:            5,
		PurchaseUnitPrice:    decimal.NewFromInt(20),
		PurchaseDate:         util.NewDate(2025, 6, 2),
		PurchaseExchangeRate: decimal.NewFromInt(150),
	}
	tsm := domain.Position{
		Symbol:               "TSM",
		UnitsHeld:            1,
		PurchaseUnitPrice:    decimal.NewFromInt(100),
		PurchaseDate:         util.NewDate(2025, 6, 2),
		PurchaseExchangeRate: decimal.NewFromInt(150),
	}
	profile, end := domain.NewProfile()
	end()

	resp := &app.RebalanceResponse{
		Run: app.Run{
			ID:      uuid.New(),
			Date:    util.NewDate(2025, 10, 1),
			Profile: profile,
		},
		BaseCurrency:          "USD",
		LocalCurrency:         "JPY",
		Rate:                  l1_service.RateResult{Base: "USD", Quote: "JPY", Rate: decimal.NewFromInt(150)},
		AdditionalBudgetLocal: decimal.NewFromInt(30000),
		AdditionalBudgetBase:  decimal.NewFromInt(200),
		Held:                  domain.Holdings{intc, tsm},
		Rebalance: domain.RebalanceResult{
			TargetSymbols: []string{"AMD"},
			ToBuy: domain.AllocationResult{
				Mode:   domain.AllocationModeScoreWeighted,
				Budget: decimal.NewFromInt(200),
				Entries: []domain.AllocationEntry{
					{Symbol: "AMD", Rank: 1, UnitsToBuy: 1, UnitPrice: &price, Spent: price},
				},
				Leftover: decimal.Zero,
			},
			ToSell:        []domain.Position{intc},
			Retained:      []domain.Position{tsm},
			UnrealizedPnL: map[string]*decimal.Decimal{"INTC": &pnl, "TSM": nil},
			CurrentPrices: map[string]decimal.Decimal{"INTC": decimal.NewFromInt(22), "AMD": price},
		},
		UpdatedPositions: []domain.Position{tsm},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderRebalance(&buf, resp, FormatTable))
		out := buf.String()

		require.Contains(t, out, "targets: [AMD]")
		require.Contains(t, out, "unknown")
		require.Contains(t, out, "incomplete")
		require.Contains(t, out, "¥1,500")
		require.Contains(t, out, "SELL")
		require.Contains(t, out, "$110.00")
		require.NotContains(t, out, "[FALLBACK]")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderRebalance(&buf, resp, FormatJSON))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Equal(t, false, decoded["pnlComplete"])
		require.Nil(t, decoded["unrealizedPnl"].(map[string]interface{})["TSM"])

		trades := decoded["trades"].([]interface{})
		require.Len(t, trades, 2)
		require.Equal(t, "SELL", trades[0].(map[string]interface{})["side"])
	})
}

func TestRenderRebalance_lots(t *testing.T) {
	lot := func(price int64) domain.Position {
		return domain.Position{
			Symbol:               "NVDA",
			UnitsHeld:            1,
			PurchaseUnitPrice:    decimal.NewFromInt(price),
			PurchaseDate:         util.NewDate(2025, 6, 2),
			PurchaseExchangeRate: decimal.NewFromInt(150),
		}
	}
	held := domain.Holdings{lot(180), lot(190)}
	// (200-180)*150 + (200-190)*150
	sum := decimal.NewFromInt(4500)
	profile, end := domain.NewProfile()
	end()

	resp := &app.RebalanceResponse{
		Run:           app.Run{ID: uuid.New(), Date: util.NewDate(2025, 10, 1), Profile: profile},
		BaseCurrency:  "USD",
		LocalCurrency: "JPY",
		Rate:          l1_service.RateResult{Base: "USD", Quote: "JPY", Rate: decimal.NewFromInt(150)},
		Held:          held,
		Rebalance: domain.RebalanceResult{
			TargetSymbols: []string{"NVDA"},
			ToBuy:         domain.AllocationResult{Mode: domain.AllocationModeScoreWeighted, Entries: []domain.AllocationEntry{}},
			ToSell:        []domain.Position{},
			Retained:      held,
			UnrealizedPnL: map[string]*decimal.Decimal{"NVDA": &sum},
			CurrentPrices: map[string]decimal.Decimal{"NVDA": decimal.NewFromInt(200)},
		},
		UpdatedPositions: held,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderRebalance(&buf, resp, FormatTable))
	out := buf.String()

	require.Contains(t, out, "¥3,000")
	require.Contains(t, out, "¥1,500")
	require.Equal(t, 1, strings.Count(out, "¥4,500"))
	require.Contains(t, out, "unrealized pnl: ¥4,500")
}
