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

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/in-toto/go-leakscan/scanner"
)

type textWriter struct {
	w io.Writer
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: w}
}

func (t *textWriter) Write(d detector.Detection) error {
	rule := ""
	if d.RuleID != "" {
		rule = fmt.Sprintf(" rule=%s", d.RuleID)
	}

	_, err := fmt.Fprintf(t.w, "[%s] %s:%d:%d match=%q score=%.1f%%%s\n",
		d.Tier, d.File, d.Line, d.Column, d.Text, d.Score, rule)
	return err
}

func (t *textWriter) Close(summary scanner.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nScan %s: %d files scanned, %d skipped, %d errors in %s\n",
		summary.Status, summary.FilesScanned, summary.FilesSkipped, summary.FileErrors, summary.Duration.Round(time.Millisecond))

	if summary.ModelAbsent {
		fmt.Fprintf(&b, "No model was loaded: %d candidates were not classified\n", summary.Unclassified)
	}

	fmt.Fprintf(&b, "Found %d potential secrets", summary.Detections)
	parts := make([]string, 0, len(risk.Tiers))
	for _, tier := range risk.Tiers {
		parts = append(parts, fmt.Sprintf("%s: %d", tier, summary.ByTier[tier]))
	}
	fmt.Fprintf(&b, " (%s)\n", strings.Join(parts, ", "))

	_, err := io.WriteString(t.w, b.String())
	return err
}
