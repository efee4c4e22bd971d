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

package risk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		p        float64
		expected Tier
	}{
		{0, None},
		{0.15, None},
		{0.150001, Low},
		{0.35, Low},
		{0.350001, Medium},
		{0.45, Medium},
		{0.450001, High},
		{0.65, High},
		{0.650001, Critical},
		{1, Critical},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, Classify(tc.p), "p=%v", tc.p)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0)
	for i := 1; i <= 100000; i++ {
		cur := Classify(float64(i) / 100000)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 72.3, Score(0.72301))
	assert.Equal(t, 15.0, Score(0.15))
	assert.Equal(t, 100.0, Score(1))
	assert.Equal(t, 0.0, Score(0))

	// ties are decided by the binary value of p*100
	assert.Equal(t, 0.1, Score(0.0015))
	assert.Equal(t, 88.1, Score(0.881))
	assert.Equal(t, 12.3, Score(0.12345))
}

func TestTierText(t *testing.T) {
	assert.Equal(t, "CRITICAL", Critical.String())
	assert.False(t, None.Reportable())
	assert.True(t, Low.Reportable())

	parsed, err := ParseTier("medium")
	require.NoError(t, err)
	assert.Equal(t, Medium, parsed)

	_, err = ParseTier("severe")
	assert.Error(t, err)

	out, err := json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{High})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"HIGH"}`, string(out))

	var decoded struct {
		Tier Tier `json:"tier"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, High, decoded.Tier)
}
