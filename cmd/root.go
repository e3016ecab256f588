package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"stockalloc/internal/domain"
	"stockalloc/internal/report"
	"stockalloc/internal/util"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	offline    bool
	output     string
	symbols    []string
}

// Execute runs the stockalloc command line with os.Args.
func Execute(ctx context.Context) error {
	return newRootCommand(ctx, os.Stdout).Execute()
}

func newRootCommand(ctx context.Context, stdout io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "stockalloc",
		Short: "Rank stocks by ROE and PER and turn a budget into whole-unit purchases",
		Long: `stockalloc scores a universe of stocks by a weighted mix of normalized
return on equity and price to earnings, then allocates a budget across the
top ranked names or proposes buy/sell trades against a saved position record.

Examples:
  stockalloc allocate --budget 500000 --roe-weight 0.6 --max-positions 3 --mode GreedyFill
  stockalloc rebalance --positions positions.csv --additional-budget 100000
  stockalloc allocate --budget 100000 --offline --output json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $STOCKALLOC_CONFIG or stockalloc.yaml)")
	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "use static quotes from the config universe and the fallback rate")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	root.PersistentFlags().StringSliceVar(&opts.symbols, "symbols", nil, "override the configured universe")

	root.AddCommand(allocateCmd(ctx, opts))
	root.AddCommand(rebalanceCmd(ctx, opts))

	return root
}

// setup loads the config and wires dependencies for one subcommand run.
func (o *rootOptions) setup() (*Dependencies, report.Format, error) {
	format, err := report.ParseFormat(o.output)
	if err != nil {
		return nil, "", err
	}
	cfg, err := util.LoadConfig(o.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return InitializeDependencies(*cfg, o.offline), format, nil
}

func (o *rootOptions) universe(cfg util.Config) []string {
	if len(o.symbols) > 0 {
		return o.symbols
	}
	return cfg.UniverseSymbols()
}

// scoringFlags are shared by allocate and rebalance. Unset flags fall back
// to the config.
type scoringFlags struct {
	roeWeight  float64
	mode       string
	expression string
}

func (f *scoringFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.roeWeight, "roe-weight", 0.6, "weight of normalized ROE in the score, 0..1 (default from config)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "allocation mode: EqualSplit, ScoreWeighted or GreedyFill (default from config)")
	cmd.Flags().StringVar(&f.expression, "score-expression", "", "custom score expression over normRoe, normPer, roe, per, roeWeight")
}

func (f *scoringFlags) resolve(cmd *cobra.Command, cfg util.Config) (float64, domain.AllocationMode, string, error) {
	roeWeight := cfg.Scoring.RoeWeight
	if cmd.Flags().Changed("roe-weight") {
		roeWeight = f.roeWeight
	}
	modeName := cfg.Scoring.Mode
	if cmd.Flags().Changed("mode") {
		modeName = f.mode
	}
	mode, err := domain.ParseAllocationMode(modeName)
	if err != nil {
		return 0, "", "", err
	}
	expression := cfg.Scoring.Expression
	if cmd.Flags().Changed("score-expression") {
		expression = f.expression
	}
	return roeWeight, mode, expression, nil
}
