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

func rebalanceCmd(ctx context.Context, opts *rootOptions) *cobra.Command {
	var (
		positionsPath    string
		additionalBudget string
		topN             int
		outputPath       string
		dryRun           bool
		scoring          scoringFlags
	)

	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Propose buy and sell trades against a saved position record",
		Long: `Re-scores the universe and compares its top N against the positions in
the record. Held stocks that fell out of the top N are proposed for a full
sale; top N stocks that are not held are bought with the additional budget.
Held stocks without a current price are kept and their PnL is reported as
unknown. The updated record is written back unless --dry-run is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, format, err := opts.setup()
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(additionalBudget)
			if err != nil {
				return fmt.Errorf("%w: invalid additional budget %q", domain.ErrInvalidInput, additionalBudget)
			}
			roeWeight, mode, expression, err := scoring.resolve(cmd, deps.Config)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top-n") {
				topN = deps.Config.Scoring.MaxPositions
			}
			if outputPath == "" {
				outputPath = positionsPath
			}
			if dryRun {
				outputPath = ""
			}

			resp, err := deps.RebalanceHandler.Rebalance(ctx, app.RebalanceRequest{
				Symbols:          opts.universe(deps.Config),
				RecordPath:       positionsPath,
				AdditionalBudget: amount,
				RoeWeight:        roeWeight,
				TopN:             topN,
				Mode:             mode,
				Expression:       expression,
				OutputPath:       outputPath,
			})
			if err != nil {
				return err
			}

			if err := report.RenderRebalance(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if resp.Scored.Degenerate {
				return domain.ErrDegenerateScoring
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&positionsPath, "positions", "", "position record from a previous allocate")
	cmd.Flags().StringVar(&additionalBudget, "additional-budget", "0", "extra budget in local currency for new purchases")
	cmd.Flags().IntVar(&topN, "top-n", 5, "size of the target set (default max positions from config)")
	cmd.Flags().StringVar(&outputPath, "out", "", "where to write the updated record (default: overwrite --positions)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not write the updated record")
	scoring.register(cmd)
	_ = cmd.MarkFlagRequired("positions")

	return cmd
}
