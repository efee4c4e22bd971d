// Copyright 2026 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/in-toto/go-leakscan/dataset"
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/report"
	"github.com/spf13/cobra"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from a labelled CSV file",
		Long: `Trains a gradient boosted tree model from a CSV file with a "text" column
holding string literals and a "label" column holding 1 for secrets and 0
otherwise, and writes the model document to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTrain(cmd)
		},
	}

	fs := cmd.Flags()
	fs.StringP("data", "d", "", "Path to the labelled CSV training data")
	fs.StringP("out", "o", "model.json", "Path to write the trained model to")
	fs.String("report", "", "Path to write the training report to")
	fs.String("report-format", string(report.FormatYAML), "Training report format (yaml, json, text)")
	addRegistryFlags(fs, ensemble.RegistryEntry())

	return cmd
}

func (a *app) runTrain(cmd *cobra.Command) error {
	dataPath, err := a.path("data")
	if err != nil {
		return err
	}

	if dataPath == "" {
		return errors.New("--data is required")
	}

	records, err := dataset.ReadFile(dataPath)
	if err != nil {
		return err
	}

	negatives, positives := dataset.Balance(records)
	log.Infof("Loaded %d records from %s (%d secrets, %d other)", len(records), dataPath, positives, negatives)

	samples, err := dataset.Samples(records)
	if err != nil {
		return err
	}

	trainer, err := ensemble.NewTrainerFromOptions(
		registryValues(a.v, ensemble.RegistryEntry()),
		ensemble.WithProgress(func(m ensemble.RoundMetrics) {
			log.Debugf("round %d: train logloss %.5f error %.4f", m.Round, m.TrainLogLoss, m.TrainError)
		}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, rep, err := trainer.Fit(ctx, samples)
	if err != nil {
		return err
	}

	outPath, err := a.path("out")
	if err != nil {
		return err
	}

	if err := model.SaveFile(outPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved model with %d trees to %s\n", model.NumTrees(), outPath)
	if err := report.WriteTraining(out, rep, report.FormatText); err != nil {
		return err
	}

	reportPath, err := a.path("report")
	if err != nil || reportPath == "" {
		return err
	}

	format, err := report.ParseFormat(a.v.GetString("report-format"))
	if err != nil {
		return err
	}

	f, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("error creating training report: %w", err)
	}
	defer f.Close()

	if err := report.WriteTraining(f, rep, format); err != nil {
		return err
	}

	return f.Close()
}
