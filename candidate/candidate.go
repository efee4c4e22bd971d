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

// Package candidate pulls quoted string literals out of single lines of text.
// Those literals are the only strings leakscan ever scores.
package candidate

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MinLength is the shortest literal, in characters, that is worth scoring.
	MinLength = 8
	// MaxLength is the longest literal, in characters, that is worth scoring.
	MaxLength = 200
)

// literalPattern matches the shortest literal enclosed by a matching pair of
// double or single quotes. Quotes never span lines.
var literalPattern = regexp.MustCompile(`"([^"\n]*)"|'([^'\n]*)'`)

// Candidate is a quoted literal found on one line.
type Candidate struct {
	// Text is the literal without its quotes.
	Text string
	// Line is the 1-based line number the literal was found on.
	Line int
	// Offset is the byte offset of Text's first byte within the line.
	Offset int
}

// Extract returns every quoted literal on line in order of appearance. Empty
// literals are returned too; use Eligible or Filter to drop what is too short or
// too long to score.
func Extract(line string, lineNum int) []Candidate {
	matches := literalPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		// m[2:4] is the double quoted group, m[4:6] the single quoted one
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}

		candidates = append(candidates, Candidate{
			Text:   line[start:end],
			Line:   lineNum,
			Offset: start,
		})
	}

	return candidates
}

// Eligible reports whether text has between MinLength and MaxLength characters.
func Eligible(text string) bool {
	n := utf8.RuneCountInString(text)
	return n >= MinLength && n <= MaxLength
}

// Filter returns the eligible candidates of line.
func Filter(line string, lineNum int) []Candidate {
	all := Extract(line, lineNum)
	eligible := all[:0]
	for _, c := range all {
		if Eligible(c.Text) {
			eligible = append(eligible, c)
		}
	}

	return eligible
}
