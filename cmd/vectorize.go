package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/fitter"
	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/parser"
	"github.com/felo/eml-vectorizer/internal/vectorizer"
)

// vectorRow is one line of vectorize output
type vectorRow struct {
	File    string             `json:"file"`
	Columns int                `json:"columns"`
	Entries []vectorizer.Entry `json:"entries"`
}

func newVectorizeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectorize <file.eml>...",
		Short: "Print the sparse feature rows of messages under the active fit",
		Long: `Print one JSON object per message with the non-zero columns of its
feature row. Column 0 counts words outside the vocabulary.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}

			database, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			_, p, err := fitter.RestoreActive(database)
			if err != nil {
				return fmt.Errorf("failed to load active fit: %w", err)
			}

			msgs, err := parseFiles(args)
			if err != nil {
				return err
			}

			features, err := p.Transform(msgs)
			if err != nil {
				return err
			}

			_, cols := features.Dims()
			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, file := range args {
				row := vectorRow{File: file, Columns: cols, Entries: features.Row(i)}
				if err := enc.Encode(row); err != nil {
					return fmt.Errorf("failed to encode row: %w", err)
				}
			}
			return nil
		},
	}

	return cmd
}

// parseFiles parses every .eml file in paths
func parseFiles(paths []string) ([]mimetree.Node, error) {
	msgs := make([]mimetree.Node, len(paths))
	for i, path := range paths {
		node, err := parser.ParseEMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		msgs[i] = node
	}
	return msgs, nil
}
