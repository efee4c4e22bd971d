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

// Package risk maps a secret probability onto an ordered risk tier.
package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tier is an ordered risk category: None < Low < Medium < High < Critical.
type Tier int

const (
	None Tier = iota
	Low
	Medium
	High
	Critical
)

// Lower bounds of each reported tier. A probability must be strictly greater
// than a bound to reach its tier.
const (
	lowThreshold      = 0.15
	mediumThreshold   = 0.35
	highThreshold     = 0.45
	criticalThreshold = 0.65
)

var tierNames = [...]string{
	None:     "NONE",
	Low:      "LOW",
	Medium:   "MEDIUM",
	High:     "HIGH",
	Critical: "CRITICAL",
}

// Tiers lists every reportable tier from most to least severe.
var Tiers = []Tier{Critical, High, Medium, Low}

// Classify returns the tier of probability p. Probabilities at or below 0.15
// are None and must not be reported.
func Classify(p float64) Tier {
	switch {
	case p > criticalThreshold:
		return Critical
	case p > highThreshold:
		return High
	case p > mediumThreshold:
		return Medium
	case p > lowThreshold:
		return Low
	default:
		return None
	}
}

// Score converts p to a percentage rounded to one decimal place. Rounding is
// done on the exact binary value of p*100, so 0.0015 scores 0.1.
func Score(p float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(p*100, 'f', 1, 64), 64)
	if err != nil {
		return math.NaN()
	}

	return rounded
}

func (t Tier) String() string {
	if t < None || t > Critical {
		return fmt.Sprintf("Tier(%d)", int(t))
	}

	return tierNames[t]
}

// Reportable reports whether detections of tier t are emitted.
func (t Tier) Reportable() bool {
	return t > None && t <= Critical
}

func (t Tier) MarshalText() ([]byte, error) {
	if t < None || t > Critical {
		return nil, fmt.Errorf("invalid risk tier %d", int(t))
	}

	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Tier(i), nil
		}
	}

	return None, fmt.Errorf("unknown risk tier %q", s)
}
