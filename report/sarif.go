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

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/in-toto/go-leakscan/scanner"
	"github.com/owenrumney/go-sarif/sarif"
)

const (
	toolName = "leakscan"
	toolURI  = "https://github.com/in-toto/go-leakscan"
)

// sarifWriter buffers detections and writes a single SARIF 2.1.0 log on
// Close, with one rule per risk tier.
type sarifWriter struct {
	w          io.Writer
	version    string
	detections []detector.Detection
}

func newSARIFWriter(w io.Writer, version string) *sarifWriter {
	return &sarifWriter{w: w, version: version}
}

func (s *sarifWriter) Write(d detector.Detection) error {
	s.detections = append(s.detections, d)
	return nil
}

func (s *sarifWriter) Close(summary scanner.Summary) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("error creating sarif report: %w", err)
	}

	run := sarif.NewRun(toolName, toolURI)
	if s.version != "" {
		run.Tool.Driver.Version = &s.version
	}

	for _, tier := range risk.Tiers {
		run.AddRule(ruleID(tier)).
			WithDescription(fmt.Sprintf("Hard-coded secret candidate with %s risk", strings.ToLower(tier.String())))
	}

	for _, d := range s.detections {
		msg := fmt.Sprintf("Possible hard-coded secret %q (score %.1f%%)", d.Text, d.Score)
		if d.RuleID != "" {
			msg += fmt.Sprintf(", also matched gitleaks rule %s", d.RuleID)
		}

		region := sarif.NewSimpleRegion(d.Line, d.Line).WithStartColumn(d.Column)
		location := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewSimpleArtifactLocation(d.File)).
			WithRegion(region)

		run.AddResult(ruleID(d.Tier)).
			WithLevel(level(d.Tier)).
			WithMessage(sarif.NewTextMessage(msg)).
			WithLocation(sarif.NewLocationWithPhysicalLocation(location))
	}

	rep.AddRun(run)
	if err := rep.PrettyWrite(s.w); err != nil {
		return fmt.Errorf("error writing sarif report: %w", err)
	}

	return nil
}

func ruleID(tier risk.Tier) string {
	return "leakscan/" + strings.ToLower(tier.String())
}

func level(tier risk.Tier) string {
	switch tier {
	case risk.Critical, risk.High:
		return "error"
	case risk.Medium:
		return "warning"
	default:
		return "note"
	}
}
