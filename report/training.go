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

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/in-toto/go-leakscan/ensemble"
	"go.yaml.in/yaml/v3"
)

// featureImportance is one row of the split count table.
type featureImportance struct {
	Feature string `json:"feature" yaml:"feature"`
	Splits  int    `json:"splits" yaml:"splits"`
}

// trainingDocument is the serialized form of a training report. The round
// history is kept whole; the evaluation is what most readers look at.
type trainingDocument struct {
	Params         ensemble.Params         `json:"params" yaml:"params"`
	TrainSize      int                     `json:"train_size" yaml:"train_size"`
	ValidationSize int                     `json:"validation_size" yaml:"validation_size"`
	Duration       string                  `json:"duration" yaml:"duration"`
	Evaluation     ensemble.Evaluation     `json:"evaluation" yaml:"evaluation"`
	Importance     []featureImportance     `json:"feature_importance" yaml:"feature_importance"`
	History        []ensemble.RoundMetrics `json:"history" yaml:"history"`
}

func newTrainingDocument(r *ensemble.Report) trainingDocument {
	doc := trainingDocument{
		Params:         r.Params,
		TrainSize:      r.TrainSize,
		ValidationSize: r.ValidationSize,
		Duration:       r.Duration.String(),
		Evaluation:     r.Evaluation,
		History:        r.History,
	}

	for name, splits := range r.SplitCounts {
		doc.Importance = append(doc.Importance, featureImportance{Feature: name, Splits: splits})
	}

	sort.Slice(doc.Importance, func(i, j int) bool {
		if doc.Importance[i].Splits != doc.Importance[j].Splits {
			return doc.Importance[i].Splits > doc.Importance[j].Splits
		}
		return doc.Importance[i].Feature < doc.Importance[j].Feature
	})

	return doc
}

// WriteTraining writes r as YAML, JSON or a short text summary.
func WriteTraining(w io.Writer, r *ensemble.Report, format Format) error {
	doc := newTrainingDocument(r)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error encoding training report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error encoding training report: %w", err)
		}
		return nil
	case FormatText:
		return writeTrainingText(w, doc)
	default:
		return fmt.Errorf("format %q is not supported for training reports", format)
	}
}

func writeTrainingText(w io.Writer, doc trainingDocument) error {
	var b strings.Builder
	ev := doc.Evaluation
	fmt.Fprintf(&b, "Train: %d | Validation: %d | Trees: %d | Duration: %s\n",
		doc.TrainSize, doc.ValidationSize, doc.Params.Trees, doc.Duration)
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n", ev.Accuracy*100)
	fmt.Fprintf(&b, "Precision: %.4f  Recall: %.4f  F1: %.4f  LogLoss: %.4f\n", ev.Precision, ev.Recall, ev.F1, ev.LogLoss)
	fmt.Fprintf(&b, "Confusion: TP=%d FP=%d TN=%d FN=%d\n",
		ev.Confusion.TruePositives, ev.Confusion.FalsePositives, ev.Confusion.TrueNegatives, ev.Confusion.FalseNegatives)
	b.WriteString("Feature importance (splits):\n")
	for _, fi := range doc.Importance {
		fmt.Fprintf(&b, "  %-14s %d\n", fi.Feature, fi.Splits)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
