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
	"fmt"

	"github.com/in-toto/go-leakscan/registry"
)

const TrainerName = "gbdt"

var trainerRegistry = registry.New[*Trainer]()

func init() {
	trainerRegistry.Register(TrainerName, func() *Trainer { return NewTrainer() },
		registry.IntConfigOption(
			"trees",
			"Number of boosting rounds",
			defaultTrees,
			func(t *Trainer, v int) (*Trainer, error) {
				if v < 1 {
					return t, fmt.Errorf("trees must be at least 1")
				}
				WithTrees(v)(t)
				return t, nil
			},
		),
		registry.IntConfigOption(
			"max-depth",
			"Maximum depth of each tree",
			defaultMaxDepth,
			func(t *Trainer, v int) (*Trainer, error) {
				if v < 1 {
					return t, fmt.Errorf("max depth must be at least 1")
				}
				WithMaxDepth(v)(t)
				return t, nil
			},
		),
		registry.FloatConfigOption(
			"learning-rate",
			"Shrinkage applied to every tree",
			defaultLearningRate,
			func(t *Trainer, v float64) (*Trainer, error) {
				WithLearningRate(v)(t)
				return t, nil
			},
		),
		registry.FloatConfigOption(
			"lambda",
			"L2 regularization of leaf values",
			defaultLambda,
			func(t *Trainer, v float64) (*Trainer, error) {
				WithLambda(v)(t)
				return t, nil
			},
		),
		registry.FloatConfigOption(
			"gamma",
			"Minimum gain required to split a node",
			defaultGamma,
			func(t *Trainer, v float64) (*Trainer, error) {
				WithGamma(v)(t)
				return t, nil
			},
		),
		registry.FloatConfigOption(
			"min-child-weight",
			"Minimum hessian sum in each child of a split",
			defaultMinChildWeight,
			func(t *Trainer, v float64) (*Trainer, error) {
				WithMinChildWeight(v)(t)
				return t, nil
			},
		),
		registry.IntConfigOption(
			"max-bins",
			"Maximum histogram bins per feature",
			defaultMaxBins,
			func(t *Trainer, v int) (*Trainer, error) {
				WithMaxBins(v)(t)
				return t, nil
			},
		),
		registry.FloatConfigOption(
			"validation-fraction",
			"Share of samples held out for evaluation",
			defaultValidationFraction,
			func(t *Trainer, v float64) (*Trainer, error) {
				WithValidationFraction(v)(t)
				return t, nil
			},
		),
		registry.IntConfigOption(
			"seed",
			"Seed of the hold-out shuffle",
			defaultSeed,
			func(t *Trainer, v int) (*Trainer, error) {
				if v < 0 {
					return t, fmt.Errorf("seed must not be negative")
				}
				WithSeed(uint64(v))(t)
				return t, nil
			},
		),
	)
}

// RegistryEntry returns the registration of the trainer and its options, used
// to generate command line flags.
func RegistryEntry() registry.Entry[*Trainer] {
	entry, _ := trainerRegistry.Entry(TrainerName)
	return entry
}

// NewTrainerFromOptions builds a trainer from option values keyed by option
// name and applies opts on top. Missing options keep their defaults.
func NewTrainerFromOptions(values map[string]any, opts ...Option) (*Trainer, error) {
	t, err := trainerRegistry.Build(TrainerName, values)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}
