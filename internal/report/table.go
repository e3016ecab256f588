package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
	l1_service "stockalloc/internal/service/l1"
	"stockalloc/internal/util"

	"github.com/shopspring/decimal"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeRunHeader(w io.Writer, run app.Run, rate l1_service.RateResult) {
	fmt.Fprintf(w, "run %s (%s)\n", run.ID, run.Date.Format(util.DateLayout))
	rateLine := fmt.Sprintf("exchange rate %s/%s: %s", rate.Base, rate.Quote, rate.Rate.String())
	if rate.IsFallback {
		rateLine += "  [FALLBACK]"
	}
	fmt.Fprintln(w, rateLine)
}

func writeAllocationTable(w io.Writer, resp *app.AllocateResponse) error {
	writeRunHeader(w, resp.Run, resp.Rate)
	fmt.Fprintf(
		w,
		"budget: %s -> %s\n\n",
		formatMoney(resp.BudgetLocal, resp.LocalCurrency),
		formatMoney(resp.BudgetBase, resp.BaseCurrency),
	)

	writeEntries(w, resp.Allocation, resp.Scored, resp.Rate.Rate, resp.BaseCurrency, resp.LocalCurrency)
	writeSkipped(w, resp.Allocation)
	writeWarnings(w, resp.Warnings)
	return nil
}

// writeEntries prints the recommended purchases with their scoring
// inputs, followed by the totals in both currencies.
func writeEntries(w io.Writer, allocation domain.AllocationResult, scored domain.ScoredSet, rate decimal.Decimal, base, local string) {
	fmt.Fprintf(w, "mode: %s\n", allocation.Mode)
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "RANK\tSYMBOL\tROE\tPER\tSCORE\tWEIGHT\tPRICE\tUNITS\tSPENT\tSPENT "+local+"\tFLAGS")
	for _, e := range allocation.Purchases() {
		roe, per := "-", "-"
		if c, ok := scored.Get(e.Symbol); ok {
			roe = fmt.Sprintf("%.2f", c.ReturnOnEquity)
			per = fmt.Sprintf("%.2f", c.PriceToEarnings)
		}
		fmt.Fprintf(
			tw,
			"%d\t%s\t%s\t%s\t%.4f\t%.4f\t%s\t%d\t%s\t%s\t%s\n",
			e.Rank,
			e.Symbol,
			roe,
			per,
			e.Score,
			e.Weight,
			formatMoney(*e.UnitPrice, base),
			e.UnitsToBuy,
			formatMoney(e.Spent, base),
			formatMoney(toLocal(e.Spent, rate), local),
			qualityFlags(e.Quality),
		)
	}
	tw.Flush()

	spent := allocation.TotalSpent()
	fmt.Fprintf(
		w,
		"\ntotal spent: %s (%s)  leftover: %s (%s)\n",
		formatMoney(spent, base),
		formatMoney(toLocal(spent, rate), local),
		formatMoney(allocation.Leftover, base),
		formatMoney(toLocal(allocation.Leftover, rate), local),
	)
}

func writeSkipped(w io.Writer, allocation domain.AllocationResult) {
	skipped := allocation.Skipped()
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintln(w, "\nskipped:")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "RANK\tSYMBOL\tSCORE\tREASON\tFLAGS")
	for _, e := range skipped {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%s\t%s\n", e.Rank, e.Symbol, e.Score, e.SkipReason, qualityFlags(e.Quality))
	}
	tw.Flush()
}

func writeWarnings(w io.Writer, warnings []domain.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nwarnings:")
	for _, warning := range warnings {
		fmt.Fprintf(w, "  %s\n", warning.String())
	}
}

func writeRebalanceTable(w io.Writer, resp *app.RebalanceResponse) error {
	writeRunHeader(w, resp.Run, resp.Rate)
	result := resp.Rebalance
	rate := resp.Rate.Rate

	fmt.Fprintf(w, "targets: %v\n\n", result.TargetSymbols)

	sold := map[string]bool{}
	for _, p := range result.ToSell {
		sold[p.Symbol] = true
	}

	fmt.Fprintln(w, "held:")
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SYMBOL\tUNITS\tBOUGHT\tCOST "+resp.LocalCurrency+"\tPNL "+resp.LocalCurrency+"\tACTION")
	for _, p := range resp.Held {
		// per lot; the summary line carries the per-symbol sums
		pnl := "unknown"
		if price, ok := result.CurrentPrices[p.Symbol]; ok {
			pnl = formatMoney(p.UnrealizedPnL(price, rate), resp.LocalCurrency)
		}
		action := "retain"
		if sold[p.Symbol] {
			action = "sell"
		}
		fmt.Fprintf(
			tw,
			"%s\t%d\t%s\t%s\t%s\t%s\n",
			p.Symbol,
			p.UnitsHeld,
			p.PurchaseDate.Format(util.DateLayout),
			formatMoney(p.CostBasis(), resp.LocalCurrency),
			pnl,
			action,
		)
	}
	tw.Flush()

	total, complete := result.TotalUnrealizedPnL()
	totalLine := formatMoney(total, resp.LocalCurrency)
	if !complete {
		totalLine += " (incomplete: some prices unknown)"
	}
	fmt.Fprintf(w, "\nunrealized pnl: %s\n\n", totalLine)

	fmt.Fprintln(w, "proposed trades:")
	tw = newTabWriter(w)
	fmt.Fprintln(tw, "SIDE\tSYMBOL\tUNITS\tPRICE\tAMOUNT")
	for _, t := range result.ProposedTrades() {
		price, amount := "unknown", "unknown"
		if t.ExpectedPrice != nil {
			price = formatMoney(*t.ExpectedPrice, resp.BaseCurrency)
			amount = formatMoney(*t.ExpectedAmount(), resp.BaseCurrency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", t.Side, t.Symbol, t.Units, price, amount)
	}
	tw.Flush()

	fmt.Fprintf(
		w,
		"\nadditional budget: %s -> %s\n",
		formatMoney(resp.AdditionalBudgetLocal, resp.LocalCurrency),
		formatMoney(resp.AdditionalBudgetBase, resp.BaseCurrency),
	)
	writeEntries(w, result.ToBuy, resp.Scored, rate, resp.BaseCurrency, resp.LocalCurrency)
	writeSkipped(w, result.ToBuy)
	writeWarnings(w, resp.Warnings)
	return nil
}
