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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/in-toto/go-leakscan/features"
	"github.com/in-toto/go-leakscan/log"
)

// Document is the persisted form of an Ensemble.
type Document struct {
	BaseScore    float64  `json:"base_score" jsonschema:"title=Base Score,description=Log-odds added to every prediction before the logistic function"`
	LearningRate float64  `json:"learning_rate" jsonschema:"title=Learning Rate,description=Shrinkage the leaf values were scaled by"`
	FeatureNames []string `json:"feature_names" jsonschema:"title=Feature Names,description=Ordered feature schema the model was trained on"`
	Trees        []Tree   `json:"trees" jsonschema:"title=Trees,description=Regression trees in boosting order"`
}

// Document returns a deep copy of the model in its persisted form.
func (e *Ensemble) Document() Document {
	trees := make([]Tree, len(e.trees))
	for i, t := range e.trees {
		nodes := make([]Node, len(t.Nodes))
		copy(nodes, t.Nodes)
		trees[i] = Tree{Nodes: nodes}
	}

	return Document{
		BaseScore:    e.baseScore,
		LearningRate: e.learningRate,
		FeatureNames: e.FeatureNames(),
		Trees:        trees,
	}
}

// Save writes the model as indented JSON.
func (e *Ensemble) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Document()); err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}

	return nil
}

// SaveFile writes the model to path, replacing it atomically.
func (e *Ensemble) SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("error creating temp file in %s: %w", dir, err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Debugf("(ensemble) error removing temp file: %s", err)
		}
	}()

	if err := e.Save(tmp); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error writing model to %s: %w", path, err)
	}

	return nil
}

// Load reads and validates a model. Failures are returned as *ModelLoadError;
// a model trained on a different feature schema also matches ErrSchemaMismatch.
func Load(r io.Reader) (*Ensemble, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ModelLoadError{Err: fmt.Errorf("error decoding model document: %w", err)}
	}

	e, err := FromDocument(doc)
	if err != nil {
		return nil, &ModelLoadError{Err: err}
	}

	return e, nil
}

// LoadFile reads and validates the model stored at path.
func LoadFile(path string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	defer f.Close()

	e, err := Load(f)
	if err != nil {
		var loadErr *ModelLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}

	log.Debugf("(ensemble) loaded model from %s: %d trees, max depth %d", path, e.NumTrees(), e.MaxDepth())
	return e, nil
}

// FromDocument validates doc and builds an Ensemble from a copy of it.
func FromDocument(doc Document) (*Ensemble, error) {
	if !features.MatchesSchema(doc.FeatureNames) {
		return nil, fmt.Errorf("%w: model has [%s], vectorizer has [%s]", ErrSchemaMismatch,
			strings.Join(doc.FeatureNames, ", "), strings.Join(features.Names(), ", "))
	}

	if !isFinite(doc.BaseScore) {
		return nil, fmt.Errorf("base_score is not finite")
	}

	if !isFinite(doc.LearningRate) || doc.LearningRate <= 0 {
		return nil, fmt.Errorf("learning_rate must be a positive number, got %v", doc.LearningRate)
	}

	e := &Ensemble{
		baseScore:    doc.BaseScore,
		learningRate: doc.LearningRate,
		featureNames: features.Names(),
		trees:        make([]Tree, len(doc.Trees)),
	}

	for i, t := range doc.Trees {
		if err := validateTree(t); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}

		nodes := make([]Node, len(t.Nodes))
		copy(nodes, t.Nodes)
		e.trees[i] = Tree{Nodes: nodes}
	}

	return e, nil
}

// validateTree checks that t is a proper binary tree rooted at node 0 whose
// children always follow their parent, so evaluation always terminates.
func validateTree(t Tree) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}

	parents := make([]int, len(t.Nodes))
	for i, n := range t.Nodes {
		if n.ID != i {
			return fmt.Errorf("node at index %d has id %d", i, n.ID)
		}

		if n.IsLeaf {
			if !isFinite(n.Value) {
				return fmt.Errorf("leaf %d has a non finite value", i)
			}
			continue
		}

		if n.Feature < 0 || n.Feature >= features.Count {
			return fmt.Errorf("node %d splits on unknown feature %d", i, n.Feature)
		}

		if !isFinite(n.Threshold) {
			return fmt.Errorf("node %d has a non finite threshold", i)
		}

		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d has invalid child %d", i, child)
			}
			parents[child]++
		}

		if n.Left == n.Right {
			return fmt.Errorf("node %d has identical children", i)
		}
	}

	for i := 1; i < len(parents); i++ {
		if parents[i] != 1 {
			return fmt.Errorf("node %d is referenced %d times", i, parents[i])
		}
	}

	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
