package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/aka-qualia/internal/pipeline"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region classify

// classifyOutput is pipeline.Result with the dispatch error rendered.
type classifyOutput struct {
	pipeline.Result
	DispatchError string `json:"dispatch_error,omitempty"`
}

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [scene.json|-]",
		Short: "Run one scene through the pipeline and print the result",
		Long: `Reads a phenomenal scene as JSON from a file, or from stdin when the
argument is "-" or absent, runs every stage and prints the result as JSON.

Example:
  akaq classify testdata/threat.json
  cat scene.json | akaq classify -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			scene, err := readScene(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}

			p, closeAll, err := buildPipeline(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer closeAll()

			res, err := p.Process(cmd.Context(), scene)
			if err != nil {
				return err
			}
			out := classifyOutput{Result: res}
			if res.DispatchErr != nil {
				out.DispatchError = res.DispatchErr.Error()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// readScene decodes a scene from path, or from stdin for "-".
func readScene(stdin io.Reader, path string) (qualia.PhenomenalScene, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return qualia.PhenomenalScene{}, fmt.Errorf("read scene: %w", err)
	}
	var scene qualia.PhenomenalScene
	if err := json.Unmarshal(data, &scene); err != nil {
		return qualia.PhenomenalScene{}, fmt.Errorf("decode scene: %w", err)
	}
	return scene, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion classify
