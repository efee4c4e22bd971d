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
	"github.com/in-toto/go-leakscan/registry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// addRegistryFlags adds one flag per option of entry, named after the option.
func addRegistryFlags[T any](fs *pflag.FlagSet, entry registry.Entry[T]) {
	for _, opt := range entry.Options {
		switch o := opt.(type) {
		case *registry.ConfigOption[T, int]:
			fs.Int(o.Name(), o.DefaultVal(), o.Description())
		case *registry.ConfigOption[T, float64]:
			fs.Float64(o.Name(), o.DefaultVal(), o.Description())
		case *registry.ConfigOption[T, string]:
			fs.String(o.Name(), o.DefaultVal(), o.Description())
		case *registry.ConfigOption[T, []string]:
			fs.StringSlice(o.Name(), o.DefaultVal(), o.Description())
		case *registry.ConfigOption[T, bool]:
			fs.Bool(o.Name(), o.DefaultVal(), o.Description())
		}
	}
}

// registryValues collects the value of every option of entry from v, typed
// the way the registry setters expect them.
func registryValues[T any](v *viper.Viper, entry registry.Entry[T]) map[string]any {
	values := make(map[string]any, len(entry.Options))
	for _, opt := range entry.Options {
		name := opt.Name()
		switch opt.(type) {
		case *registry.ConfigOption[T, int]:
			values[name] = v.GetInt(name)
		case *registry.ConfigOption[T, float64]:
			values[name] = v.GetFloat64(name)
		case *registry.ConfigOption[T, string]:
			values[name] = v.GetString(name)
		case *registry.ConfigOption[T, []string]:
			values[name] = v.GetStringSlice(name)
		case *registry.ConfigOption[T, bool]:
			values[name] = v.GetBool(name)
		}
	}

	return values
}
