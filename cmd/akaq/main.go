// Command akaq runs phenomenal scenes through the Aka Qualia pipeline,
// replays regression fixtures, and inspects the run ledger.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/config"
	"github.com/danielpatrickdp/aka-qualia/internal/logging"
)

// #region app

// app carries state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

// errDiverged is returned when a replay has failing cases. main exits 1
// without printing it again.
var errDiverged = errors.New("replay diverged")

// #endregion app

// #region root

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "akaq",
		Short: "Aka Qualia signal pipeline",
		Long: `akaq classifies phenomenal scenes into glyphs, computes their
priority and regulation policy, routes glyph signals to the symbolic
mesh, and asks the oneiric layer for rendering hints.

Configuration is read from --config (YAML) and AKA_* environment
variables, environment first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to YAML config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newClassifyCmd(a),
		newReplayCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
		newServeFeedbackCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDiverged) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// #endregion root
