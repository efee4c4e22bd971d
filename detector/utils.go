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

package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxMatchDisplayLength       = 16 // longer literals are shown as prefix...suffix
	truncatedMatchSegmentLength = 4  // characters kept on each side of a truncated literal
	shortMatchVisibleLength     = 2  // characters kept at the start of a short literal
	redactionMask               = "*"
)

// truncateMatch hides the middle of a literal so reports do not leak it.
func truncateMatch(match string) string {
	runes := []rune(match)
	if len(runes) > maxMatchDisplayLength {
		return string(runes[:truncatedMatchSegmentLength]) + "..." + string(runes[len(runes)-truncatedMatchSegmentLength:])
	}

	if len(runes) <= shortMatchVisibleLength {
		return strings.Repeat(redactionMask, len(runes))
	}

	return string(runes[:shortMatchVisibleLength]) + strings.Repeat(redactionMask, len(runes)-shortMatchVisibleLength)
}

// detectionNamespace scopes the name based detection IDs.
var detectionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/in-toto/go-leakscan/detection"))

// detectionID is stable for the same literal at the same position, so an
// unchanged tree scans to the same IDs.
func detectionID(file string, line, col int, fp string) string {
	name := file + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(col) + ":" + fp
	return uuid.NewSHA1(detectionNamespace, []byte(name)).String()
}

func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// column converts a byte offset within line to a 1-based character column.
func column(line string, offset int) int {
	if offset > len(line) {
		offset = len(line)
	}

	return utf8.RuneCountInString(line[:offset]) + 1
}
