package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/corpus"
	"github.com/felo/eml-vectorizer/internal/mimetree"
)

func newStructuresCmd(root *rootOptions) *cobra.Command {
	var (
		stored  bool
		asJSON  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "structures [corpus dir]",
		Short: "Count the MIME structure signatures of a corpus",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}

			var counts []mimetree.StructureCount
			if stored {
				database, err := openDB(cfg, logger)
				if err != nil {
					return err
				}
				defer database.Close()

				fit, err := database.ActiveFit()
				if err != nil {
					return fmt.Errorf("failed to load active fit: %w", err)
				}
				counts = fit.Structures
			} else {
				if len(args) == 1 {
					cfg.CorpusPath = args[0]
				}
				if cmd.Flags().Changed("workers") {
					cfg.Workers = workers
				}

				msgs, _, err := corpus.NewLoader(cfg.CorpusPath, logger).
					WithConcurrency(cfg.Workers).
					Load(cmd.Context())
				if err != nil {
					return err
				}
				counts = mimetree.CountStructures(corpus.Nodes(msgs))
			}

			return printStructures(cmd.OutOrStdout(), counts, asJSON)
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "show the structures stored with the active fit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parsing workers")

	return cmd
}

func printStructures(w io.Writer, counts []mimetree.StructureCount, asJSON bool) error {
	if asJSON {
		if counts == nil {
			counts = []mimetree.StructureCount{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	for _, c := range counts {
		fmt.Fprintf(w, "%7d  %s\n", c.Count, c.Signature)
	}
	return nil
}
