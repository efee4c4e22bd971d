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

package ensemble

import (
	"math"
	"time"
)

// DecisionThreshold is the probability at or above which the evaluation
// counts a prediction as positive.
const DecisionThreshold = 0.5

// RoundMetrics are the diagnostics recorded after one boosting round.
type RoundMetrics struct {
	Round             int     `json:"round" yaml:"round"`
	TrainLogLoss      float64 `json:"train_logloss" yaml:"train_logloss"`
	TrainError        float64 `json:"train_error" yaml:"train_error"`
	ValidationLogLoss float64 `json:"validation_logloss,omitempty" yaml:"validation_logloss,omitempty"`
	ValidationError   float64 `json:"validation_error,omitempty" yaml:"validation_error,omitempty"`
}

// Confusion is a binary confusion matrix.
type Confusion struct {
	TruePositives  int `json:"true_positives" yaml:"true_positives"`
	FalsePositives int `json:"false_positives" yaml:"false_positives"`
	TrueNegatives  int `json:"true_negatives" yaml:"true_negatives"`
	FalseNegatives int `json:"false_negatives" yaml:"false_negatives"`
}

// Evaluation summarizes predictions at DecisionThreshold.
type Evaluation struct {
	Samples   int       `json:"samples" yaml:"samples"`
	Accuracy  float64   `json:"accuracy" yaml:"accuracy"`
	Precision float64   `json:"precision" yaml:"precision"`
	Recall    float64   `json:"recall" yaml:"recall"`
	F1        float64   `json:"f1" yaml:"f1"`
	LogLoss   float64   `json:"logloss" yaml:"logloss"`
	Confusion Confusion `json:"confusion" yaml:"confusion"`
}

// Report describes a training run. Evaluation is computed on the hold-out
// split, or on the training data when nothing was held out.
type Report struct {
	Params         Params         `json:"params" yaml:"params"`
	TrainSize      int            `json:"train_size" yaml:"train_size"`
	ValidationSize int            `json:"validation_size" yaml:"validation_size"`
	History        []RoundMetrics `json:"history" yaml:"history"`
	Evaluation     Evaluation     `json:"evaluation" yaml:"evaluation"`
	SplitCounts    map[string]int `json:"split_counts" yaml:"split_counts"`
	Duration       time.Duration  `json:"duration" yaml:"duration"`
}

// logLoss is the binary cross entropy of probability p against label y.
func logLoss(p, y float64) float64 {
	p = math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

func lossAndError(samples []Sample, margins []float64) (loss, errRate float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	wrong := 0
	for i, s := range samples {
		p := sigmoid(margins[i])
		loss += logLoss(p, s.Label)
		if predicted(p) != s.Label {
			wrong++
		}
	}

	n := float64(len(samples))
	return loss / n, float64(wrong) / n
}

func predicted(p float64) float64 {
	if p >= DecisionThreshold {
		return 1
	}

	return 0
}

func evaluate(samples []Sample, margins []float64) Evaluation {
	ev := Evaluation{Samples: len(samples)}
	if len(samples) == 0 {
		return ev
	}

	c := &ev.Confusion
	for i, s := range samples {
		p := sigmoid(margins[i])
		ev.LogLoss += logLoss(p, s.Label)
		switch {
		case predicted(p) == 1 && s.Label == 1:
			c.TruePositives++
		case predicted(p) == 1:
			c.FalsePositives++
		case s.Label == 1:
			c.FalseNegatives++
		default:
			c.TrueNegatives++
		}
	}

	n := float64(len(samples))
	ev.LogLoss /= n
	ev.Accuracy = float64(c.TruePositives+c.TrueNegatives) / n
	ev.Precision = ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
	ev.Recall = ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)
	if ev.Precision+ev.Recall > 0 {
		ev.F1 = 2 * ev.Precision * ev.Recall / (ev.Precision + ev.Recall)
	}

	return ev
}

// Evaluate scores samples with the model and summarizes the predictions.
func (e *Ensemble) Evaluate(samples []Sample) Evaluation {
	margins := make([]float64, len(samples))
	for i, s := range samples {
		margins[i] = e.Margin(s.Vector)
	}

	return evaluate(samples, margins)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}
