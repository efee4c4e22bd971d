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

package features

import "math"

// Bounds of the band of lengths most API keys and tokens fall in. As with the
// prefix tables, changing these requires retraining.
const (
	typicalLengthMin = 20
	typicalLengthMax = 64
	rampStart        = 8
	decayScale       = 64.0
)

// TypicalLengthScore is 1 for lengths in [20, 64], ramps linearly from 0 at 8
// to 1 at 20, and decays as exp(-(n-64)/64) above 64.
func TypicalLengthScore(n int) float64 {
	switch {
	case n < rampStart:
		return 0
	case n < typicalLengthMin:
		return float64(n-rampStart) / float64(typicalLengthMin-rampStart)
	case n <= typicalLengthMax:
		return 1
	default:
		return math.Exp(-float64(n-typicalLengthMax) / decayScale)
	}
}
