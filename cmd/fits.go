package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felo/eml-vectorizer/internal/db"
)

func newFitsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fits",
		Short: "Manage stored fits",
	}

	cmd.AddCommand(
		newFitsListCmd(root),
		newFitsActivateCmd(root),
		newFitsDeleteCmd(root),
	)

	return cmd
}

func newFitsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored fits, newest first",
		Args:  cobra.NoArgs,
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

			fits, err := database.ListFits()
			if err != nil {
				return err
			}
			active, err := database.GetSetting(db.SettingActiveFit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMESSAGES\tSLOTS\tCORPUS\tCREATED\t")
			for _, fit := range fits {
				marker, created := "", "-"
				if fit.ID == active {
					marker = "*"
				}
				if fit.CreatedAt.Valid {
					created = fit.CreatedAt.Time.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
					fit.ID, fit.MessageCount, fit.VocabularySize, fit.CorpusPath, created, marker)
			}
			return tw.Flush()
		},
	}
}

func newFitsActivateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <fit id>",
		Short: "Make a stored fit the active one",
		Args:  cobra.ExactArgs(1),
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

			if err := database.ActivateFit(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active fit %s\n", args[0])
			return nil
		},
	}
}

func newFitsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fit id>",
		Short: "Delete a stored fit",
		Args:  cobra.ExactArgs(1),
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

			if err := database.DeleteFit(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted fit %s\n", args[0])
			return nil
		},
	}
}
