package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/pipeline"
)

var runInMemory bool

var runCmd = &cobra.Command{
	Use:   "run <snapshot-file>",
	Short: "Run the full pipeline for one stock-risk snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read snapshot file")
		}

		result, err := env.Pipeline.Run(ctx, content, pipeline.RunOptions{
			Filename: filepath.Base(args[0]),
			InMemory: runInMemory,
		}, func(e model.ProgressEvent) {
			zap.L().Info("progress", zap.String("step", string(e.Step)), zap.Any("detail", e.Detail))
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Int("groups", len(result.Groups)),
			zap.Int("reports", len(result.Reports)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runInMemory, "in-memory", false, "return artifact payloads base64-inline instead of writing files")
	rootCmd.AddCommand(runCmd)
}
