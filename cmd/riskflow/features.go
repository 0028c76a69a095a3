package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/features"
	"github.com/Veraticus/riskflow/internal/ingest"
	"github.com/Veraticus/riskflow/internal/model"
)

func (a *app) featuresCmd() *cobra.Command {
	var (
		out      string
		stateOut string
		withIDs  bool
	)

	cmd := &cobra.Command{
		Use:   "features <csv>",
		Short: "Engineer the feature matrix for a transaction file",
		Long: `Fit the feature pipeline on a transaction file and write one feature row
per transaction: date parts, per-customer aggregates, imputed and
standardized numerics, then label-encoded categoricals.

Examples:
  riskflow features data/raw/data.csv --out data/processed/features.csv
  riskflow features data.csv --state-out pipeline.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := features.NewPipeline()
			m, err := p.FitTransform(f)
			if err != nil {
				return fmt.Errorf("feature engineering failed: %w", err)
			}

			var ids []string
			if withIDs {
				if ids, err = f.Text(model.ColCustomerID); err != nil {
					return err
				}
			}

			if err := writeTo(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return ingest.WriteMatrix(w, m, p.FeatureNames(), ids)
			}); err != nil {
				return err
			}

			if stateOut != "" {
				if err := writePipelineState(p, stateOut); err != nil {
					return err
				}
			}

			rows, cols := m.Dims()
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Engineered %d rows x %d features", rows, cols)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", stdio, "output CSV path (- for stdout)")
	cmd.Flags().StringVar(&stateOut, "state-out", "", "write the fitted pipeline state as YAML")
	cmd.Flags().BoolVar(&withIDs, "with-ids", false, "prefix each row with its CustomerId")

	return cmd
}

func writePipelineState(p *features.Pipeline, path string) error {
	state, err := p.State()
	if err != nil {
		return err
	}
	return writeTo(path, nil, func(w io.Writer) error {
		return features.WriteState(w, state)
	})
}
