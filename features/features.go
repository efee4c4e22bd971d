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

// Package features turns a candidate string into the fixed order numeric
// vector the tree ensemble is trained on and evaluated with.
//
// Schema is the single source of truth for the vector layout. Models record it
// when they are trained and are rejected at load time when their recorded
// schema differs from this one.
package features

import (
	"errors"
	"math"
	"unicode"
)

// Indexes into a Vector.
const (
	Entropy = iota
	Length
	DigitRatio
	UpperRatio
	SymbolRatio
	PrefixScore
	LengthScore

	// Count is the number of features in a Vector.
	Count
)

// Schema lists the feature names in Vector order.
var Schema = [Count]string{
	Entropy:     "entropy",
	Length:      "length",
	DigitRatio:  "digit_ratio",
	UpperRatio:  "upper_ratio",
	SymbolRatio: "symbol_ratio",
	PrefixScore: "prefix_score",
	LengthScore: "length_score",
}

// ErrEmptyInput is returned when an empty string reaches the vectorizer. The
// candidate length filter should make this impossible.
var ErrEmptyInput = errors.New("features: cannot vectorize an empty string")

// Vector is the numeric summary of one candidate, in Schema order.
type Vector [Count]float64

// Names returns a copy of Schema as a slice.
func Names() []string {
	names := make([]string, Count)
	copy(names, Schema[:])
	return names
}

// MatchesSchema reports whether names equals Schema, in order.
func MatchesSchema(names []string) bool {
	if len(names) != Count {
		return false
	}

	for i, name := range names {
		if Schema[i] != name {
			return false
		}
	}

	return true
}

// Extract computes the feature vector of s. It is deterministic and has no
// side effects.
func Extract(s string) (Vector, error) {
	var v Vector
	if s == "" {
		return v, ErrEmptyInput
	}

	runes := []rune(s)
	n := float64(len(runes))

	var digits, upper, symbols int
	for _, r := range runes {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			if unicode.IsUpper(r) {
				upper++
			}
		default:
			symbols++
		}
	}

	v[Entropy] = ShannonEntropy(runes)
	v[Length] = n
	v[DigitRatio] = float64(digits) / n
	v[UpperRatio] = float64(upper) / n
	v[SymbolRatio] = float64(symbols) / n
	v[PrefixScore] = CredentialPrefixScore(s)
	v[LengthScore] = TypicalLengthScore(len(runes))
	return v, nil
}

// ShannonEntropy returns the entropy in bits of the character distribution of
// runes. A string of one repeated character has entropy 0 and the result never
// exceeds log2 of the number of distinct characters.
func ShannonEntropy(runes []rune) float64 {
	if len(runes) == 0 {
		return 0
	}

	freq := make(map[rune]int, len(runes))
	for _, r := range runes {
		freq[r]++
	}

	if len(freq) == 1 {
		return 0
	}

	n := float64(len(runes))
	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}

	// guard against -0 and rounding just above the bound
	if entropy < 0 {
		return 0
	}
	if limit := math.Log2(float64(len(freq))); entropy > limit {
		return limit
	}

	return entropy
}
