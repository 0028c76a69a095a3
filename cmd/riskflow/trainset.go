package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/features"
	"github.com/Veraticus/riskflow/internal/training"
)

func (a *app) trainsetCmd() *cobra.Command {
	var (
		flags        clusterFlags
		out          string
		testOut      string
		stateOut     string
		testFraction float64
	)

	cmd := &cobra.Command{
		Use:   "trainset <csv>",
		Short: "Build the labeled training table for the model trainer",
		Long: `Label customers, attach each transaction's customer label and engineer
features for the labeled rows. The output has CustomerId, the features and
is_high_risk.

With --test-fraction the rows are shuffled with the clustering seed and
split into --out and --test-out.

Examples:
  riskflow trainset data.csv --out train.csv --state-out pipeline.yaml
  riskflow trainset data.csv --test-fraction 0.2 --out train.csv --test-out test.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if testFraction != 0 && testOut == "" {
				return fmt.Errorf("--test-out is required with --test-fraction")
			}

			f, err := readTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rc := a.riskConfig(cmd, flags)
			_, _, res, err := labelCustomers(cmd, f, rc)
			if err != nil {
				return err
			}

			p := features.NewPipeline()
			set, err := training.Build(p, f, res.Labels)
			if err != nil {
				return fmt.Errorf("failed to build training set: %w", err)
			}

			train, test := set, (*training.Set)(nil)
			if testFraction != 0 {
				if train, test, err = set.Split(testFraction, rc.Seed); err != nil {
					return err
				}
			}

			if err := writeTo(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return train.WriteCSV(w)
			}); err != nil {
				return err
			}
			if test != nil {
				if err := writeTo(testOut, nil, func(w io.Writer) error {
					return test.WriteCSV(w)
				}); err != nil {
					return err
				}
			}
			if stateOut != "" {
				if err := writePipelineState(p, stateOut); err != nil {
					return err
				}
			}

			msg := fmt.Sprintf("Training set: %d rows, %d high risk", train.Len(), train.Positives())
			if test != nil {
				msg += fmt.Sprintf("; test set: %d rows", test.Len())
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(msg))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", stdio, "training CSV path (- for stdout)")
	cmd.Flags().StringVar(&testOut, "test-out", "", "test CSV path, used with --test-fraction")
	cmd.Flags().StringVar(&stateOut, "state-out", "", "write the fitted pipeline state as YAML")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0, "fraction of rows held out for testing")

	return cmd
}
