package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/replay"
)

// #region export

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath      string
		outPath     string
		last        int
		glyphKey    string
		description string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded runs as a replay fixture",
		Long: `Turns the most recent ledger runs into a regression fixture whose
expectations are the recorded glyphs and priorities. Cases are written
oldest first.

Example:
  akaq export --db akaq.db --out testdata/regression.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			store, err := openLedger(dbPath, a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := recentRuns(store, last, glyphKey)
			if err != nil {
				return err
			}
			for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
				runs[i], runs[j] = runs[j], runs[i]
			}

			f := replay.FixtureFromRuns(description, runs)
			if err := replay.WriteFixture(outPath, f); err != nil {
				return err
			}
			a.logger.Info("fixture exported", zap.String("out", outPath), zap.Int("cases", len(f.Cases)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cases to %s\n", len(f.Cases), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the run ledger (default: ledger.path)")
	cmd.Flags().StringVar(&outPath, "out", "", "fixture JSON to write")
	cmd.Flags().IntVar(&last, "last", 100, "export the N most recent runs")
	cmd.Flags().StringVar(&glyphKey, "glyph", "", "only runs that produced this glyph key")
	cmd.Flags().StringVar(&description, "description", "exported from run ledger", "fixture description")
	return cmd
}

// #endregion export
