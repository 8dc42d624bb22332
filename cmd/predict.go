package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/classifier"
	"github.com/felo/eml-vectorizer/internal/fitter"
)

func newPredictCmd(root *rootOptions) *cobra.Command {
	var (
		modelPath string
		refit     bool
	)

	cmd := &cobra.Command{
		Use:   "predict <file.eml>...",
		Short: "Predict a label for each message with a linear model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if modelPath != "" {
				cfg.ModelPath = modelPath
			}
			if cfg.ModelPath == "" {
				return fmt.Errorf("no model given, use --model or EMLVEC_MODEL_PATH")
			}

			model, err := classifier.LoadLinearModel(cfg.ModelPath)
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

			var predictor *classifier.Predictor
			if refit {
				predictor = classifier.NewRefittingPredictor(p, model)
			} else if predictor, err = classifier.NewPredictor(p, model); err != nil {
				return err
			}

			msgs, err := parseFiles(args)
			if err != nil {
				return err
			}

			labels, err := predictor.PredictBatch(msgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, file := range args {
				fmt.Fprintf(out, "%s\t%s\n", file, labels[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "linear model JSON file")
	cmd.Flags().BoolVar(&refit, "refit", false, "fit a fresh vocabulary on each message, for models trained that way")

	return cmd
}
