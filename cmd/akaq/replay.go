package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/replay"
)

// #region replay

type replayOutput struct {
	Description string              `json:"description,omitempty"`
	Results     []replay.CaseResult `json:"results"`
	Summary     replay.Summary      `json:"summary"`
}

func newReplayCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>",
		Short: "Replay a regression fixture and compare against expectations",
		Long: `Runs every case of a fixture through an in-memory pipeline with a
recording router and the local feedback hook. Exits 1 when any case
errors or misses an expectation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := replay.LoadFixture(args[0])
			if err != nil {
				return err
			}
			opts := f.Config.ToOptions()
			if a.cfg.WeightedPriority {
				opts.WeightedPriority = true
			}

			results := replay.Replay(f.Cases, opts)
			summary := replay.Summarize(results)
			a.logger.Debug("replay finished",
				zap.String("fixture", args[0]),
				zap.Int("cases", summary.TotalCases),
				zap.Int("passed", summary.Passed),
			)

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := writeJSON(out, replayOutput{Description: f.Description, Results: results, Summary: summary}); err != nil {
					return err
				}
			} else {
				printReplayTable(out, results, summary)
			}
			if summary.Passed != summary.TotalCases {
				return errDiverged
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func printReplayTable(w io.Writer, results []replay.CaseResult, s replay.Summary) {
	fmt.Fprintf(w, "%-24s| %8s| %10s| %-40s| %s\n", "Case", "Priority", "Dispatched", "Glyphs", "Result")
	fmt.Fprintf(w, "%-24s+%9s+%11s+%-41s+%s\n",
		strings.Repeat("-", 24), strings.Repeat("-", 9), strings.Repeat("-", 11), strings.Repeat("-", 41), "------")

	for _, r := range results {
		status := "OK"
		switch {
		case r.Err != "":
			status = "ERROR"
		case len(r.Mismatches) > 0:
			status = "DIFF"
		}
		fmt.Fprintf(w, "%-24s| %8.4f| %10d| %-40s| %s\n",
			r.Name, r.Priority, r.Dispatched, strings.Join(r.Glyphs, ","), status)
		if r.Err != "" {
			fmt.Fprintf(w, "    %s\n", r.Err)
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "    %s\n", m)
		}
	}

	fmt.Fprintf(w, "\nSummary: %d total, %d passed, %d diverged, %d errors\n",
		s.TotalCases, s.Passed, s.Mismatched, s.Errors)
	fmt.Fprintf(w, "Dispatched: %d  Mean priority: %.4f  Mean routing weight: %.4f\n",
		s.Dispatched, s.MeanPriority, s.MeanRoutingWeight)

	keys := make([]string, 0, len(s.GlyphCounts))
	for k := range s.GlyphCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-26s %d\n", k, s.GlyphCounts[k])
	}
}

// #endregion replay
