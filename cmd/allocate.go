package cmd

import (
	"context"
	"fmt"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
	"stockalloc/internal/report"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func allocateCmd(ctx context.Context, opts *rootOptions) *cobra.Command {
	var (
		budget       string
		maxPositions int
		recordPath   string
		scoring      scoringFlags
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Spend a budget on the top ranked stocks",
		Long: `Scores the universe and buys whole units of the top ranked stocks within
the budget. The budget is in local currency and converted with the live
exchange rate (or the fallback rate, which is flagged in the output).
The purchases are exported as a position record for a later rebalance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, format, err := opts.setup()
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(budget)
			if err != nil {
				return fmt.Errorf("%w: invalid budget %q", domain.ErrInvalidInput, budget)
			}
			roeWeight, mode, expression, err := scoring.resolve(cmd, deps.Config)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-positions") {
				maxPositions = deps.Config.Scoring.MaxPositions
			}

			resp, err := deps.AllocateHandler.Allocate(ctx, app.AllocateRequest{
				Symbols:      opts.universe(deps.Config),
				Budget:       amount,
				RoeWeight:    roeWeight,
				MaxPositions: maxPositions,
				Mode:         mode,
				Expression:   expression,
				RecordPath:   recordPath,
			})
			if err != nil {
				return err
			}

			if err := report.RenderAllocation(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if resp.Scored.Degenerate {
				return domain.ErrDegenerateScoring
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&budget, "budget", "", "budget in local currency")
	cmd.Flags().IntVar(&maxPositions, "max-positions", 5, "maximum number of purchases (default from config)")
	cmd.Flags().StringVar(&recordPath, "record", "positions.csv", "where to export the position record; empty to skip")
	scoring.register(cmd)
	_ = cmd.MarkFlagRequired("budget")

	return cmd
}
