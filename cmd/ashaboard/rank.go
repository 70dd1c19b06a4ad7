package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/internal/seed"
	"github.com/ashaboard/ashaboard/pkg/config"
	"github.com/ashaboard/ashaboard/pkg/dataset"
	"github.com/ashaboard/ashaboard/pkg/ranking"
	"github.com/ashaboard/ashaboard/pkg/surface"
)

type rankOpts struct {
	dataPath      string
	configPath    string
	outputFmt     string
	limit         int
	openCase      int
	warningSource int
}

func newRankCmd() *cobra.Command {
	var opts rankOpts

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank villages by health risk",
		Long: `Loads cases and water sources, ranks villages by risk score and renders the
leaderboard. Without --data the seed source from the config file is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataPath, "data", "", "Dataset file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: nearest .ashaboard/config.yaml)")
	cmd.Flags().StringVarP(&opts.outputFmt, "output", "o", "text", "Output format: text, json or markdown")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show at most this many villages (0 = all)")
	cmd.Flags().IntVar(&opts.openCase, "open-case-weight", 0, "Override the score of each open case")
	cmd.Flags().IntVar(&opts.warningSource, "warning-source-weight", 0, "Override the score of each warning water source")

	return cmd
}

func runRank(ctx context.Context, w, errW io.Writer, opts rankOpts) error {
	renderer, err := surface.New(opts.outputFmt)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, opts.dataPath, cfg.Seed)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		fmt.Fprintf(errW, "Warning: dataset has problems, ranking anyway:\n%v\n", err)
	}

	weights := cfg.Ranking.Weights
	if opts.openCase > 0 {
		weights.OpenCase = opts.openCase
	}
	if opts.warningSource > 0 {
		weights.WarningSource = opts.warningSource
	}
	if err := weights.Validate(); err != nil {
		return fmt.Errorf("ranking weights: %w", err)
	}

	scores := ranking.NewEngine(weights).Rank(ds.Cases, ds.Sources)
	board := ranking.NewBoard(0, time.Now(), scores).Top(opts.limit)
	return renderer.Render(w, board)
}

func loadDataset(ctx context.Context, path string, seedCfg config.SeedConfig) (*dataset.Dataset, error) {
	if path != "" {
		return dataset.LoadFile(path)
	}
	if seedCfg.Kind == "" || seedCfg.Kind == config.SeedNone {
		return nil, fmt.Errorf("no dataset: pass --data or configure a seed source")
	}

	loader, err := seed.New(ctx, seedCfg)
	if err != nil {
		return nil, err
	}
	if c, ok := loader.(io.Closer); ok {
		defer c.Close()
	}
	return loader.Load(ctx)
}
