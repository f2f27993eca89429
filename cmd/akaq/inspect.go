package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/ledger"
)

// #region inspect

func newInspectCmd(a *app) *cobra.Command {
	var (
		dbPath  string
		last    int
		runID   string
		glyphK  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show recorded runs from the ledger",
		Long: `Lists the most recent runs, oldest first, or shows one run in detail
with its events.

Example:
  akaq inspect --db akaq.db --last 10
  akaq inspect --db akaq.db --glyph red_threshold
  akaq inspect --db akaq.db --run 3f1c... --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedger(dbPath, a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return runDetailMode(cmd.OutOrStdout(), store, runID, jsonOut)
			}
			return runListMode(cmd.OutOrStdout(), store, last, glyphK, jsonOut)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the run ledger (default: ledger.path)")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().StringVar(&runID, "run", "", "show single run detail")
	cmd.Flags().StringVar(&glyphK, "glyph", "", "only runs that produced this glyph key")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #endregion inspect

// #region list-mode

type listRow struct {
	RunID         string   `json:"run_id"`
	Priority      float64  `json:"priority"`
	RoutingWeight float64  `json:"routing_weight"`
	Severity      string   `json:"severity"`
	Glyphs        []string `json:"glyphs"`
	HintsSource   string   `json:"hints_source,omitempty"`
	DispatchError string   `json:"dispatch_error,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

func runListMode(w io.Writer, store *ledger.Store, last int, glyphKey string, jsonOut bool) error {
	runs, err := recentRuns(store, last, glyphKey)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs found")
		return nil
	}

	// store returns newest first, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, run := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:         run.RunID,
			Priority:      run.Priority,
			RoutingWeight: run.RoutingWeight,
			Severity:      string(run.Scene.Risk.Severity),
			Glyphs:        glyph.KeysOf(run.Glyphs),
			HintsSource:   run.Hints.Source,
			DispatchError: run.DispatchError,
			CreatedAt:     run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return writeJSON(w, rows)
	}
	printListTable(w, rows)
	return nil
}

func printListTable(w io.Writer, rows []listRow) {
	fmt.Fprintf(w, "%-12s  %8s  %8s  %-8s  %-8s  %-40s  %s\n",
		"Run", "Priority", "Weight", "Severity", "Hints", "Glyphs", "Time")
	fmt.Fprintf(w, "%-12s+-%8s+-%8s+-%-8s+-%-8s+-%-40s+-%s\n",
		"------------", "--------", "--------", "--------", "--------", strings.Repeat("-", 40), "--------------------")

	for _, r := range rows {
		glyphs := strings.Join(r.Glyphs, ",")
		if glyphs == "" {
			glyphs = "-"
		}
		if r.DispatchError != "" {
			glyphs += " !"
		}
		fmt.Fprintf(w, "%-12s  %8.4f  %8.4f  %-8s  %-8s  %-40s  %s\n",
			shortID(r.RunID), r.Priority, r.RoutingWeight, r.Severity, r.HintsSource, glyphs, r.CreatedAt)
	}
}

// #endregion list-mode

// #region detail-mode

type eventRow struct {
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type detailOutput struct {
	ledger.Run
	Events []eventRow `json:"events"`
}

func runDetailMode(w io.Writer, store *ledger.Store, runID string, jsonOut bool) error {
	run, err := store.Get(runID)
	if err != nil {
		return err
	}
	events, err := store.Events(runID)
	if err != nil {
		return err
	}

	out := detailOutput{Run: run, Events: make([]eventRow, len(events))}
	for i, ev := range events {
		out.Events[i] = eventRow{Kind: ev.Kind, Detail: ev.Detail, CreatedAt: ev.CreatedAt.Format("2006-01-02T15:04:05Z")}
	}
	if jsonOut {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Run:        %s\n", run.RunID)
	fmt.Fprintf(w, "Created:    %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "Subject:    %s -> %s\n", run.Scene.Subject, run.Scene.Object)
	fmt.Fprintf(w, "Colorfield: %s\n", run.Scene.Proto.Colorfield)
	fmt.Fprintf(w, "Risk:       %.2f (%s)\n", run.Scene.Risk.Score, run.Scene.Risk.Severity)
	fmt.Fprintf(w, "Priority:   %.4f  (routing weight %.4f)\n", run.Priority, run.RoutingWeight)

	fmt.Fprintf(w, "\nGlyphs:\n")
	if len(run.Glyphs) == 0 {
		fmt.Fprintf(w, "  (none)\n")
	}
	for _, g := range run.Glyphs {
		fmt.Fprintf(w, "  %s\n", g.Key)
	}

	fmt.Fprintf(w, "\nPolicy: gain %.2f  pace %.2f", run.Policy.Gain, run.Policy.Pace)
	if run.Policy.ColorContrast != "" {
		fmt.Fprintf(w, "  contrast %s", run.Policy.ColorContrast)
	}
	fmt.Fprintf(w, "\n  actions: %s\n", strings.Join(run.Policy.Actions, ", "))

	fmt.Fprintf(w, "\nHints (%s): tempo %.2f  palette %s\n", run.Hints.Source, run.Hints.Tempo, run.Hints.PaletteHint)
	if len(run.Hints.Ops) > 0 {
		fmt.Fprintf(w, "  ops: %s\n", strings.Join(run.Hints.Ops, ", "))
	}

	if run.DispatchError != "" {
		fmt.Fprintf(w, "\nDispatch error: %s\n", run.DispatchError)
	}
	if len(out.Events) > 0 {
		fmt.Fprintf(w, "\nEvents:\n")
		for _, ev := range out.Events {
			fmt.Fprintf(w, "  %s  %-18s %s\n", ev.CreatedAt, ev.Kind, ev.Detail)
		}
	}
	return nil
}

// #endregion detail-mode

// recentRuns lists the newest runs, optionally only those carrying glyphKey.
// Aliases such as "vigilant" resolve to their canonical key.
func recentRuns(store *ledger.Store, last int, glyphKey string) ([]ledger.Run, error) {
	if glyphKey == "" {
		return store.Recent(last)
	}
	return store.RecentWithGlyph(glyph.NormalizeKey(glyphKey), last)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
