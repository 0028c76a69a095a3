package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/serving"
)

func (a *app) scoreCmd() *cobra.Command {
	var (
		statePath   string
		weightsPath string
	)

	cmd := &cobra.Command{
		Use:   "score [payload.json]",
		Short: "Score one customer payload with a fitted pipeline",
		Long: `Apply a fitted pipeline state to a single JSON payload, score the feature
row with a logistic model and print the risk probability and decision.
The payload is read from stdin when no file is given.

Examples:
  riskflow score --state pipeline.yaml --weights model.yaml payload.json
  echo '{"Amount": 1000, ...}' | riskflow score --state pipeline.yaml --weights model.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scorer, err := readScorer(weightsPath)
			if err != nil {
				return err
			}

			stateFile, err := os.Open(statePath)
			if err != nil {
				return common.NewUserError("cannot open pipeline state", err)
			}
			defer func() { _ = stateFile.Close() }()

			predictor, err := serving.NewPredictorFromState(stateFile, scorer)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != stdio {
				file, err := os.Open(args[0])
				if err != nil {
					return common.NewUserError("cannot open payload", err)
				}
				defer func() { _ = file.Close() }()
				in = file
			}

			payload, err := serving.DecodeCustomerFeatures(in)
			if err != nil {
				return err
			}

			pred, err := predictor.Predict(payload)
			if err != nil {
				return fmt.Errorf("scoring failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(pred)
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "fitted pipeline state YAML")
	cmd.Flags().StringVar(&weightsPath, "weights", "", "logistic scorer weights YAML")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("weights")

	return cmd
}

func readScorer(path string) (*serving.LogisticScorer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, common.NewUserError("cannot open scorer weights", err)
	}
	defer func() { _ = file.Close() }()
	return serving.ReadLogisticScorer(file)
}
