package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/fitter"
)

func newFitCmd(root *rootOptions) *cobra.Command {
	var (
		vocabularySize int
		workers        int
		noStem         bool
		keepHeaders    bool
	)

	cmd := &cobra.Command{
		Use:   "fit [corpus dir]",
		Short: "Learn a vocabulary from a labeled corpus and store it as the active fit",
		Long: `Learn a vocabulary from every message file below the corpus
directory. Files ending in .mbox, or starting with a "From " line, are
read as mbox archives; other files are single messages, whatever their
name. The top-level directory of each file is its label, e.g.
corpus/spam/0001.bfc8d64d... and corpus/ham/...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.CorpusPath = args[0]
			}
			if cmd.Flags().Changed("vocabulary-size") {
				cfg.VocabularySize = vocabularySize
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if noStem {
				cfg.Normalizer.Stem = false
			}
			if keepHeaders {
				cfg.Normalizer.StripHeaders = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			database, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			result, err := fitter.Run(cmd.Context(), database, fitter.Options{
				CorpusPath:     cfg.CorpusPath,
				VocabularySize: cfg.VocabularySize,
				Workers:        cfg.Workers,
				Normalizer:     cfg.NormalizerOptions(),
				StemLanguage:   cfg.Normalizer.StemLanguage,
			}, logger, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fit %s\n", result.Fit.ID)
			fmt.Fprintf(out, "Files: %d found, %d loaded, %d failed\n",
				result.Load.TotalFound, result.Load.Loaded, result.Load.Failed)
			for _, f := range result.Load.FailedFiles {
				fmt.Fprintf(out, "  failed: %s\n", f)
			}
			fmt.Fprintf(out, "Messages: %d\n", result.Fit.MessageCount)
			fmt.Fprintf(out, "Vocabulary: %d of %d slots\n", len(result.Fit.Vocabulary), result.Fit.VocabularySize)
			return nil
		},
	}

	cmd.Flags().IntVar(&vocabularySize, "vocabulary-size", 0, "maximum vocabulary size")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parsing workers")
	cmd.Flags().BoolVar(&noStem, "no-stem", false, "disable stemming")
	cmd.Flags().BoolVar(&keepHeaders, "keep-headers", false, "count subject words as well as body words")

	return cmd
}
