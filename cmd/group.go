package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/company-k/purchasing-cli/internal/pipeline"
)

var groupCmd = &cobra.Command{
	Use:   "group <snapshot-file>",
	Short: "Parse a snapshot and print supplier groups with recommendations",
	Long:  "Runs parsing, supplier grouping and the replenishment calculation only. No generation backend is contacted, so no API key is needed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read snapshot file")
		}

		// Grouping never touches the backend or the retrieval store.
		p := pipeline.New(cfg, nil, nil, nil)
		groups, err := p.Group(content, filepath.Base(args[0]))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
}
