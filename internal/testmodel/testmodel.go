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

// Package testmodel provides small hand-built models with predictable output
// for tests.
package testmodel

import (
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/features"
)

// Margins of LengthBand. sigmoid(2) ~= 0.88 is CRITICAL and sigmoid(-3) ~=
// 0.047 is NONE.
const (
	InBandMargin  = 2.0
	OutBandMargin = -3.0
)

// LengthBandDocument scores every literal inside the typical credential length
// band [20, 64] as CRITICAL and everything else as NONE.
func LengthBandDocument() ensemble.Document {
	return ensemble.Document{
		BaseScore:    0,
		LearningRate: 1,
		FeatureNames: features.Names(),
		Trees: []ensemble.Tree{{Nodes: []ensemble.Node{
			{ID: 0, Feature: features.LengthScore, Threshold: 0.999, Left: 1, Right: 2},
			{ID: 1, IsLeaf: true, Value: OutBandMargin},
			{ID: 2, IsLeaf: true, Value: InBandMargin},
		}}},
	}
}

// LengthBand returns the model described by LengthBandDocument.
func LengthBand() *ensemble.Ensemble {
	return mustBuild(LengthBandDocument())
}

// Constant returns a model assigning margin to every input.
func Constant(margin float64) *ensemble.Ensemble {
	return mustBuild(ensemble.Document{
		BaseScore:    margin,
		LearningRate: 1,
		FeatureNames: features.Names(),
	})
}

func mustBuild(doc ensemble.Document) *ensemble.Ensemble {
	e, err := ensemble.FromDocument(doc)
	if err != nil {
		panic(err)
	}

	return e
}
