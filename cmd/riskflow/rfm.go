package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/ingest"
	"github.com/Veraticus/riskflow/internal/rfm"
)

func (a *app) rfmCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "rfm <csv>",
		Short: "Summarize customers by recency, frequency and monetary value",
		Long: `Compute one RFM row per customer. Recency is measured in whole days
from the latest transaction in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			table, err := rfm.Summarize(f)
			if err != nil {
				return fmt.Errorf("RFM summary failed: %w", err)
			}

			if err := writeTo(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return ingest.WriteRFM(w, table)
			}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf(
				"Summarized %d customers (snapshot %s)", table.Len(), table.Snapshot.Format("2006-01-02"))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", stdio, "output CSV path (- for stdout)")

	return cmd
}
