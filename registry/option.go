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

package registry

import "fmt"

// Option is the set of value types a ConfigOption may carry.
type Option interface {
	int | float64 | string | []string | bool
}

// Configurer describes a single configurable option of an Entity.
type Configurer interface {
	Description() string
	Name() string
}

// applier is implemented by every ConfigOption of an Entity of type T.
type applier[T any] interface {
	Configurer
	applyDefault(T) (T, error)
	apply(T, any) (T, error)
}

// ConfigOption is a typed option of an Entity of type T.
type ConfigOption[T any, V Option] struct {
	name        string
	description string
	defaultVal  V
	setter      func(T, V) (T, error)
}

func (co *ConfigOption[T, V]) Name() string {
	return co.name
}

func (co *ConfigOption[T, V]) DefaultVal() V {
	return co.defaultVal
}

func (co *ConfigOption[T, V]) Description() string {
	return co.description
}

func (co *ConfigOption[T, V]) applyDefault(entity T) (T, error) {
	return co.setter(entity, co.defaultVal)
}

// apply sets the option from an untyped value. Integers are accepted for
// float options since config files rarely spell out "1.0".
func (co *ConfigOption[T, V]) apply(entity T, raw any) (T, error) {
	val, ok := raw.(V)
	if !ok {
		if i, isInt := raw.(int); isInt {
			val, ok = any(float64(i)).(V)
		}
	}

	if !ok {
		return entity, fmt.Errorf("option %v expects a %T value but got %T", co.name, co.defaultVal, raw)
	}

	return co.setter(entity, val)
}

func newOption[T any, V Option](name, description string, defaultVal V, setter func(T, V) (T, error)) *ConfigOption[T, V] {
	return &ConfigOption[T, V]{
		name:        name,
		description: description,
		defaultVal:  defaultVal,
		setter:      setter,
	}
}

func IntConfigOption[T any](name, description string, defaultVal int, setter func(T, int) (T, error)) *ConfigOption[T, int] {
	return newOption(name, description, defaultVal, setter)
}

func FloatConfigOption[T any](name, description string, defaultVal float64, setter func(T, float64) (T, error)) *ConfigOption[T, float64] {
	return newOption(name, description, defaultVal, setter)
}

func StringConfigOption[T any](name, description string, defaultVal string, setter func(T, string) (T, error)) *ConfigOption[T, string] {
	return newOption(name, description, defaultVal, setter)
}

func StringSliceConfigOption[T any](name, description string, defaultVal []string, setter func(T, []string) (T, error)) *ConfigOption[T, []string] {
	return newOption(name, description, defaultVal, setter)
}

func BoolConfigOption[T any](name, description string, defaultVal bool, setter func(T, bool) (T, error)) *ConfigOption[T, bool] {
	return newOption(name, description, defaultVal, setter)
}
