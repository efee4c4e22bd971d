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
	"time"

	"github.com/in-toto/go-leakscan/risk"
)

// Detection is one candidate literal the model scored above the NONE tier.
type Detection struct {
	// ID uniquely identifies the detection within and across scans
	ID string `json:"id" jsonschema:"title=ID,description=Unique identifier of the detection"`

	Tier risk.Tier `json:"tier" jsonschema:"title=Tier,description=Risk tier,enum=LOW,enum=MEDIUM,enum=HIGH,enum=CRITICAL"`

	// Text is the literal without its quotes
	Text string `json:"text" jsonschema:"title=Text,description=Matched literal without quotes"`

	File string `json:"file,omitempty" jsonschema:"title=File,description=Path of the file the literal was found in"`

	// Line is 1-based
	Line int `json:"line" jsonschema:"title=Line,description=1-based line number"`

	// Column is the 1-based character column of the first character of Text
	Column int `json:"column" jsonschema:"title=Column,description=1-based character column of the literal"`

	// Score is the probability as a percentage with one decimal place
	Score float64 `json:"score" jsonschema:"title=Score,description=Probability as a percentage rounded to one decimal"`

	Probability float64 `json:"probability" jsonschema:"title=Probability,description=Model probability that the literal is a secret"`

	// Fingerprint is the hex SHA-256 of Text, stable across scans
	Fingerprint string `json:"fingerprint" jsonschema:"title=Fingerprint,description=SHA-256 of the literal"`

	// RuleID names the gitleaks rule that also matched the literal, if any
	RuleID string `json:"ruleId,omitempty" jsonschema:"title=Rule ID,description=Gitleaks rule that also matched the literal"`

	Timestamp time.Time `json:"timestamp" jsonschema:"title=Timestamp,description=When the detection was made"`
}

// Redacted returns Text with its middle hidden.
func (d Detection) Redacted() string {
	return truncateMatch(d.Text)
}

// AllowList suppresses known false positives.
type AllowList struct {
	// Description explains the purpose of this allowlist
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description" jsonschema:"title=Description,description=Purpose of this allowlist"`

	// Paths are glob patterns of files to skip entirely
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty" mapstructure:"paths" jsonschema:"title=Paths,description=File path globs to skip"`

	// Regexes are patterns of literals to ignore
	Regexes []string `json:"regexes,omitempty" yaml:"regexes,omitempty" mapstructure:"regexes" jsonschema:"title=Regexes,description=Literal patterns to ignore (regex format)"`

	// StopWords ignore any literal containing them
	StopWords []string `json:"stopWords,omitempty" yaml:"stopWords,omitempty" mapstructure:"stopWords" jsonschema:"title=Stop Words,description=Literals containing any of these strings are ignored"`
}

// LineStats counts what happened to the candidates of one or more lines.
type LineStats struct {
	Candidates      int `json:"candidates"`
	Detections      int `json:"detections"`
	Allowlisted     int `json:"allowlisted"`
	FeatureErrors   int `json:"featureErrors"`
	InferenceErrors int `json:"inferenceErrors"`
	// Unclassified candidates were found while no model was loaded
	Unclassified int `json:"unclassified"`
}

// Add accumulates o into s.
func (s *LineStats) Add(o LineStats) {
	s.Candidates += o.Candidates
	s.Detections += o.Detections
	s.Allowlisted += o.Allowlisted
	s.FeatureErrors += o.FeatureErrors
	s.InferenceErrors += o.InferenceErrors
	s.Unclassified += o.Unclassified
}
