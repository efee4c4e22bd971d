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

// Package ensemble implements the gradient boosted tree model leakscan uses to
// estimate how likely a candidate string is to be a secret: training, JSON
// persistence and inference.
//
// An *Ensemble is immutable once built by Load or Trainer.Fit and is safe for
// concurrent use by any number of scans. A nil *Ensemble stands for "no model
// loaded"; Infer reports ErrModelAbsent in that case.
package ensemble

import (
	"errors"
	"fmt"
	"math"

	"github.com/in-toto/go-leakscan/features"
)

var (
	// ErrModelAbsent is returned by inference calls on a nil *Ensemble.
	ErrModelAbsent = errors.New("no model loaded")

	// ErrSchemaMismatch is wrapped by load errors when a model was trained on a
	// feature layout other than features.Schema. Scoring with such a model would
	// silently produce wrong probabilities.
	ErrSchemaMismatch = errors.New("model feature schema does not match the vectorizer schema")
)

// ModelLoadError is returned when a persisted model cannot be read or is
// malformed.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not load model: %v", e.Err)
	}

	return fmt.Sprintf("could not load model from %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// InferenceError is returned when a feature vector of the wrong length is
// scored. It only affects the one candidate being scored.
type InferenceError struct {
	Got  int
	Want int
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("feature vector has %d values, model expects %d", e.Got, e.Want)
}

// Node is one node of a regression tree. Split nodes send a vector left when
// its value at Feature is strictly less than Threshold. Leaf nodes carry the
// additive Value, already scaled by the learning rate.
type Node struct {
	ID        int     `json:"id" jsonschema:"title=ID,description=Index of the node within its tree"`
	IsLeaf    bool    `json:"leaf" jsonschema:"title=Leaf,description=Whether this node is a leaf"`
	Feature   int     `json:"feature,omitempty" jsonschema:"title=Feature,description=Index of the split feature in feature_names"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"title=Threshold,description=Values strictly below go to the left child"`
	Left      int     `json:"left,omitempty" jsonschema:"title=Left,description=Index of the left child"`
	Right     int     `json:"right,omitempty" jsonschema:"title=Right,description=Index of the right child"`
	Value     float64 `json:"value,omitempty" jsonschema:"title=Value,description=Additive leaf contribution"`
}

// Tree is a regression tree. Nodes[0] is the root and children always come
// after their parent.
type Tree struct {
	Nodes []Node `json:"nodes" jsonschema:"title=Nodes,description=Nodes in pre-order with the root first"`
}

func (t Tree) eval(v *features.Vector) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf {
			return n.Value
		}

		if v[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t Tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf {
			return 0
		}

		return 1 + max(walk(n.Left), walk(n.Right))
	}

	return walk(0)
}

// Ensemble is an additive collection of regression trees whose summed output,
// passed through the logistic function, is a probability.
type Ensemble struct {
	baseScore    float64
	learningRate float64
	featureNames []string
	trees        []Tree
}

// Margin returns the raw log-odds of v: the base score plus every tree's leaf.
func (e *Ensemble) Margin(v features.Vector) float64 {
	margin := e.baseScore
	for _, t := range e.trees {
		margin += t.eval(&v)
	}

	return margin
}

// Predict returns the probability that v describes a secret.
func (e *Ensemble) Predict(v features.Vector) float64 {
	return sigmoid(e.Margin(v))
}

// Infer is the checked form of Predict. It fails with ErrModelAbsent on a nil
// receiver and with an *InferenceError when x has the wrong length.
func (e *Ensemble) Infer(x []float64) (float64, error) {
	if e == nil {
		return 0, ErrModelAbsent
	}

	if len(x) != features.Count {
		return 0, &InferenceError{Got: len(x), Want: features.Count}
	}

	var v features.Vector
	copy(v[:], x)
	return e.Predict(v), nil
}

func (e *Ensemble) BaseScore() float64 {
	return e.baseScore
}

func (e *Ensemble) LearningRate() float64 {
	return e.learningRate
}

// FeatureNames returns a copy of the feature schema the model was trained on.
func (e *Ensemble) FeatureNames() []string {
	names := make([]string, len(e.featureNames))
	copy(names, e.featureNames)
	return names
}

func (e *Ensemble) NumTrees() int {
	return len(e.trees)
}

// MaxDepth returns the depth of the deepest tree.
func (e *Ensemble) MaxDepth() int {
	depth := 0
	for _, t := range e.trees {
		depth = max(depth, t.depth())
	}

	return depth
}

// SplitCounts returns how many split nodes use each feature, keyed by name.
func (e *Ensemble) SplitCounts() map[string]int {
	counts := make(map[string]int, len(e.featureNames))
	for _, name := range e.featureNames {
		counts[name] = 0
	}

	for _, t := range e.trees {
		for _, n := range t.Nodes {
			if !n.IsLeaf {
				counts[e.featureNames[n.Feature]]++
			}
		}
	}

	return counts
}

// sigmoid is the logistic function, written to avoid overflow for large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}

	z := math.Exp(x)
	return z / (1 + z)
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
