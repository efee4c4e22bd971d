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

// Package registry holds the tunable options of the scanner and the trainer.
// The CLI turns every option into a flag and a config key, and the packages
// build their entities from the resulting values.
package registry

import (
	"fmt"
	"sort"
)

// Registry maps entity names to their factory and options.
type Registry[T any] struct {
	entriesByName map[string]Entry[T]
}

// FactoryFunc creates a bare Entity before any option is applied.
type FactoryFunc[T any] func() T

// Entry is one registered Entity.
type Entry[T any] struct {
	Factory FactoryFunc[T]
	Name    string
	Options []Configurer
}

func New[T any]() Registry[T] {
	return Registry[T]{
		entriesByName: make(map[string]Entry[T]),
	}
}

// Register adds an Entity under name. Options must be created with one of
// the *ConfigOption constructors of this package for the same T.
func (r Registry[T]) Register(name string, factoryFunc FactoryFunc[T], opts ...Configurer) Entry[T] {
	entry := Entry[T]{
		Name:    name,
		Factory: factoryFunc,
		Options: opts,
	}

	r.entriesByName[name] = entry
	return entry
}

// Entry returns the Entry registered under name.
func (r Registry[T]) Entry(name string) (Entry[T], bool) {
	entry, ok := r.entriesByName[name]
	return entry, ok
}

// Build creates the Entity registered under name, applies every option's
// default and then the provided values. Values are applied in key order so
// the first failing option is the same on every run. Unknown keys are an
// error.
func (r Registry[T]) Build(name string, values map[string]any) (T, error) {
	var zero T
	entry, ok := r.Entry(name)
	if !ok {
		return zero, fmt.Errorf("could not find entry with name %v", name)
	}

	byName := make(map[string]applier[T], len(entry.Options))
	entity := entry.Factory()
	for _, opt := range entry.Options {
		a, ok := opt.(applier[T])
		if !ok {
			return zero, fmt.Errorf("option %v of %v has an unsupported type %T", opt.Name(), name, opt)
		}

		byName[opt.Name()] = a
		var err error
		if entity, err = a.applyDefault(entity); err != nil {
			return zero, fmt.Errorf("could not set default value of %v: %w", opt.Name(), err)
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	for _, k := range keys {
		a, ok := byName[k]
		if !ok {
			return zero, fmt.Errorf("%v has no option named %v", name, k)
		}

		var err error
		if entity, err = a.apply(entity, values[k]); err != nil {
			return zero, err
		}
	}

	return entity, nil
}
