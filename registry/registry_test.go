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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	workers int
	rate    float64
	name    string
	exts    []string
	strict  bool
}

func testRegistry() Registry[*testEntity] {
	reg := New[*testEntity]()
	reg.Register("test", func() *testEntity { return &testEntity{} },
		IntConfigOption("workers", "worker count", 1, func(e *testEntity, v int) (*testEntity, error) {
			if v < 1 {
				return e, errors.New("workers must be positive")
			}
			e.workers = v
			return e, nil
		}),
		FloatConfigOption("rate", "learning rate", 0.1, func(e *testEntity, v float64) (*testEntity, error) {
			e.rate = v
			return e, nil
		}),
		StringConfigOption("name", "name", "default", func(e *testEntity, v string) (*testEntity, error) {
			e.name = v
			return e, nil
		}),
		StringSliceConfigOption("exts", "extensions", []string{".go"}, func(e *testEntity, v []string) (*testEntity, error) {
			e.exts = v
			return e, nil
		}),
		BoolConfigOption("strict", "strict mode", true, func(e *testEntity, v bool) (*testEntity, error) {
			e.strict = v
			return e, nil
		}),
	)

	return reg
}

func TestBuildDefaults(t *testing.T) {
	reg := testRegistry()
	e, err := reg.Build("test", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.workers)
	assert.Equal(t, 0.1, e.rate)
	assert.Equal(t, "default", e.name)
	assert.Equal(t, []string{".go"}, e.exts)
	assert.True(t, e.strict)

	_, err = reg.Build("missing", nil)
	assert.Error(t, err)
}

func TestBuildFromValues(t *testing.T) {
	reg := testRegistry()
	e, err := reg.Build("test", map[string]any{
		"workers": 4,
		"rate":    1,
		"strict":  false,
		"exts":    []string{".py"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, e.workers)
	assert.Equal(t, 1.0, e.rate)
	assert.False(t, e.strict)
	assert.Equal(t, []string{".py"}, e.exts)
	assert.Equal(t, "default", e.name)
}

func TestBuildErrors(t *testing.T) {
	reg := testRegistry()
	tests := map[string]map[string]any{
		"wrong type":     {"workers": "four"},
		"setter rejects": {"workers": 0},
		"unknown option": {"threads": 2},
		"float for int":  {"workers": 2.5},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Build("test", values)
			assert.Error(t, err)
		})
	}
}

func TestBuildReportsFirstOptionByName(t *testing.T) {
	reg := testRegistry()
	_, err := reg.Build("test", map[string]any{"workers": "four", "name": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "option name")
}

func TestEntry(t *testing.T) {
	reg := testRegistry()
	entry, ok := reg.Entry("test")
	require.True(t, ok)
	assert.Equal(t, "test", entry.Name)
	assert.Len(t, entry.Options, 5)

	_, ok = reg.Entry("missing")
	assert.False(t, ok)
}
