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

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/report"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/in-toto/go-leakscan/scanner"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// ErrScanCancelled is returned when a scan is interrupted before it finished.
var ErrScanCancelled = errors.New("scan cancelled")

func newScanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory tree for hard-coded secrets",
		Long: `Scans every source file below path (default the working directory) for
quoted string literals and classifies each one with a trained model.

Without --model the scan still runs and reports how many literals it found,
but classifies none of them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			return a.runScan(cmd, root)
		},
	}

	fs := cmd.Flags()
	fs.StringP("model", "m", "", "Path to a trained model document")
	fs.StringP("format", "f", string(report.FormatText), "Output format (text, json, sarif)")
	fs.StringP("output", "o", "", "Write results to a file instead of stdout")
	fs.String("min-tier", risk.Low.String(), "Lowest risk tier to report (LOW, MEDIUM, HIGH, CRITICAL)")
	fs.Bool("redact", false, "Hide the middle of matched literals in the output")
	fs.Bool("gitleaks", false, "Match detections against the default gitleaks rules")
	fs.String("gitleaks-config", "", "Path to a gitleaks rules file, implies --gitleaks")
	fs.Uint64("cache-size", detector.DefaultCacheCapacity, "Number of literal scores to remember, 0 disables the cache")
	fs.Duration("cache-ttl", detector.DefaultCacheTTL, "How long a remembered literal score stays valid")
	fs.Bool("fail-on-findings", false, "Exit with an error when any secret is reported")
	fs.Bool("progress", true, "Show progress when stderr is a terminal")
	addRegistryFlags(fs, scanner.RegistryEntry())

	return cmd
}

func (a *app) runScan(cmd *cobra.Command, root string) error {
	modelPath, err := a.path("model")
	if err != nil {
		return err
	}

	model, err := loadModel(modelPath)
	if err != nil {
		return err
	}

	det, err := a.newDetector(model)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}

	minTier, err := risk.ParseTier(a.v.GetString("min-tier"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	outPath, err := a.path("output")
	if err != nil {
		return err
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}

		defer f.Close()
		out = f
	}

	w, err := report.NewWriter(format, out,
		report.WithMinTier(minTier),
		report.WithRedaction(a.v.GetBool("redact")),
		report.WithToolVersion(version()),
	)
	if err != nil {
		return err
	}

	s, err := scanner.NewFromOptions(registryValues(a.v, scanner.RegistryEntry()), scanner.WithDetector(det))
	if err != nil {
		return err
	}

	root, err = homedir.Expand(root)
	if err != nil {
		return fmt.Errorf("invalid scan path: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := s.Start(ctx, root)
	if err != nil {
		return err
	}

	summary, reported, err := consume(job, w, minTier, newProgressPrinter(cmd.ErrOrStderr(), a.v.GetBool("progress")))
	if err != nil {
		return err
	}

	if err := w.Close(summary); err != nil {
		return err
	}

	if summary.Status == scanner.Cancelled {
		return ErrScanCancelled
	}

	if a.v.GetBool("fail-on-findings") && reported > 0 {
		return fmt.Errorf("%d potential secrets found", reported)
	}

	return nil
}

// consume drains job into w. A write error cancels the job but the stream is
// still drained so the worker can finish.
func consume(job *scanner.Job, w report.Writer, minTier risk.Tier, progress *progressPrinter) (scanner.Summary, int, error) {
	var (
		summary  scanner.Summary
		reported int
		writeErr error
	)

	for ev := range job.Events() {
		switch e := ev.(type) {
		case scanner.Progress:
			progress.update(e)
		case scanner.Result:
			if writeErr != nil {
				continue
			}

			if err := w.Write(e.Detection); err != nil {
				writeErr = fmt.Errorf("error writing detection: %w", err)
				job.Cancel()
				continue
			}

			if e.Detection.Tier >= minTier {
				reported++
			}
		case scanner.Done:
			progress.finish()
			summary = e.Summary
		}
	}

	return summary, reported, writeErr
}

func (a *app) newDetector(model *ensemble.Ensemble) (*detector.Detector, error) {
	var allow detector.AllowList
	if err := a.v.UnmarshalKey("allowlist", &allow); err != nil {
		return nil, fmt.Errorf("invalid allowlist: %w", err)
	}

	opts := []detector.Option{
		detector.WithAllowList(allow),
		detector.WithGitleaks(a.v.GetBool("gitleaks")),
		detector.WithCache(a.v.GetUint64("cache-size"), a.v.GetDuration("cache-ttl")),
	}

	rules, err := a.path("gitleaks-config")
	if err != nil {
		return nil, err
	}

	if rules != "" {
		opts = append(opts, detector.WithGitleaksConfig(rules))
	}

	return detector.New(model, opts...)
}

// loadModel reads the model at path. A model trained on another feature
// layout is fatal; any other load failure degrades to a scan without a model.
func loadModel(path string) (*ensemble.Ensemble, error) {
	if path == "" {
		return nil, nil
	}

	model, err := ensemble.LoadFile(path)
	if err != nil {
		if errors.Is(err, ensemble.ErrSchemaMismatch) {
			return nil, err
		}

		log.Errorf("%v, continuing without a model", err)
		return nil, nil
	}

	log.Debugf("loaded model %s with %d trees", path, model.NumTrees())
	return model, nil
}
