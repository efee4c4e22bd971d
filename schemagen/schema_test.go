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

package schemagen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"allowlist", "detection", "model", "summary"}, Names())
}

func TestSchemaReflectsFields(t *testing.T) {
	schema, err := Schema("model")
	require.NoError(t, err)
	assert.Equal(t, "leakscan model", schema.Title)

	_, ok := schema.Properties.Get("feature_names")
	assert.True(t, ok)
	_, ok = schema.Properties.Get("trees")
	assert.True(t, ok)

	det, err := Schema("detection")
	require.NoError(t, err)
	_, ok = det.Properties.Get("ruleId")
	assert.True(t, ok)

	_, err = Schema("policy")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")
	require.NoError(t, Generate(dir))

	for _, name := range Names() {
		raw, err := os.ReadFile(filepath.Join(dir, name+".json"))
		require.NoError(t, err, name)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(raw, &parsed), name)
		assert.Equal(t, schemaIDPrefix+name+".json", parsed["$id"])
	}
}
