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
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/in-toto/go-leakscan/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func sampleDetections() []detector.Detection {
	return []detector.Detection{
		{
			ID:          "a",
			Tier:        risk.Critical,
			Text:        "abcdefghijklmnopqrst",
			File:        "config.py",
			Line:        7,
			Column:      10,
			Score:       88.1,
			Probability: 0.881,
			RuleID:      "generic-api-key",
		},
		{
			ID:          "b",
			Tier:        risk.Medium,
			Text:        "password12",
			File:        "app/main.go",
			Line:        3,
			Column:      5,
			Score:       40,
			Probability: 0.4,
		},
		{
			ID:          "c",
			Tier:        risk.Low,
			Text:        "maybe-secret",
			File:        "app/main.go",
			Line:        9,
			Column:      2,
			Score:       20,
			Probability: 0.2,
		},
	}
}

func sampleSummary() scanner.Summary {
	return scanner.Summary{
		Root:         "/repo",
		Status:       scanner.Completed,
		FilesTotal:   2,
		FilesScanned: 2,
		LineStats:    detector.LineStats{Candidates: 5, Detections: 3},
		ByTier:       map[risk.Tier]int{risk.Critical: 1, risk.Medium: 1, risk.Low: 1},
		Duration:     1500 * time.Millisecond,
	}
}

func writeAll(t *testing.T, format Format, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(format, &buf, opts...)
	require.NoError(t, err)
	for _, d := range sampleDetections() {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close(sampleSummary()))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":   FormatJSON,
		"SARIF":  FormatSARIF,
		" text ": FormatText,
		"yaml":   FormatYAML,
	}

	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestNewWriterRejectsYAML(t *testing.T) {
	_, err := NewWriter(FormatYAML, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestJSONWriter(t *testing.T) {
	out := writeAll(t, FormatJSON)

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 4)

	var first detector.Detection
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, risk.Critical, first.Tier)
	assert.Equal(t, "abcdefghijklmnopqrst", first.Text)
	assert.Equal(t, "generic-api-key", first.RuleID)

	var tail struct {
		Summary scanner.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &tail))
	assert.Equal(t, scanner.Completed, tail.Summary.Status)
	assert.Equal(t, 3, tail.Summary.Detections)
	assert.Equal(t, 1, tail.Summary.ByTier[risk.Medium])
}

func TestMinTierAndRedaction(t *testing.T) {
	out := writeAll(t, FormatJSON, WithMinTier(risk.Medium), WithRedaction(true))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var first, second detector.Detection
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "abcd...qrst", first.Text)
	assert.Equal(t, "pa********", second.Text)
	assert.NotContains(t, out, "maybe-secret")
}

func TestTextWriter(t *testing.T) {
	out := writeAll(t, FormatText)

	assert.Contains(t, out, `[CRITICAL] config.py:7:10 match="abcdefghijklmnopqrst" score=88.1% rule=generic-api-key`)
	assert.Contains(t, out, `[MEDIUM] app/main.go:3:5 match="password12" score=40.0%`)
	assert.Contains(t, out, "Scan completed: 2 files scanned, 0 skipped, 0 errors in 1.5s")
	assert.Contains(t, out, "Found 3 potential secrets (CRITICAL: 1, HIGH: 0, MEDIUM: 1, LOW: 1)")
	assert.NotContains(t, out, "No model was loaded")
}

func TestTextWriterModelAbsent(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(FormatText, &buf)
	require.NoError(t, err)

	sum := scanner.Summary{
		Status:      scanner.Completed,
		ModelAbsent: true,
		LineStats:   detector.LineStats{Candidates: 4, Unclassified: 4},
	}
	require.NoError(t, w.Close(sum))
	assert.Contains(t, buf.String(), "No model was loaded: 4 candidates were not classified")
	assert.Contains(t, buf.String(), "Found 0 potential secrets")
}

func TestSARIFWriter(t *testing.T) {
	out := writeAll(t, FormatSARIF, WithToolVersion("v1.2.3"))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine   int `json:"startLine"`
							StartColumn int `json:"startColumn"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "leakscan", run.Tool.Driver.Name)
	assert.Equal(t, "v1.2.3", run.Tool.Driver.Version)
	assert.Len(t, run.Tool.Driver.Rules, len(risk.Tiers))

	require.Len(t, run.Results, 3)
	first := run.Results[0]
	assert.Equal(t, "leakscan/critical", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Contains(t, first.Message.Text, "generic-api-key")
	require.Len(t, first.Locations, 1)
	assert.Equal(t, "config.py", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 7, first.Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, 10, first.Locations[0].PhysicalLocation.Region.StartColumn)

	assert.Equal(t, "warning", run.Results[1].Level)
	assert.Equal(t, "note", run.Results[2].Level)
}

func trainingReport() *ensemble.Report {
	return &ensemble.Report{
		Params:         ensemble.DefaultParams(),
		TrainSize:      160,
		ValidationSize: 40,
		History: []ensemble.RoundMetrics{
			{Round: 1, TrainLogLoss: 0.6, ValidationLogLoss: 0.62},
		},
		Evaluation: ensemble.Evaluation{
			Samples:   40,
			Accuracy:  0.975,
			Precision: 1,
			Recall:    0.95,
			F1:        0.974,
			LogLoss:   0.1,
			Confusion: ensemble.Confusion{TruePositives: 19, TrueNegatives: 20, FalseNegatives: 1},
		},
		SplitCounts: map[string]int{"entropy": 12, "length": 3, "digit_ratio": 3},
		Duration:    2 * time.Second,
	}
}

func TestWriteTrainingYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTraining(&buf, trainingReport(), FormatYAML))

	var doc trainingDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 160, doc.TrainSize)
	assert.Equal(t, 40, doc.ValidationSize)
	assert.Equal(t, "2s", doc.Duration)
	assert.Equal(t, 19, doc.Evaluation.Confusion.TruePositives)
	assert.Equal(t, ensemble.DefaultParams(), doc.Params)
	assert.Equal(t, []featureImportance{
		{Feature: "entropy", Splits: 12},
		{Feature: "digit_ratio", Splits: 3},
		{Feature: "length", Splits: 3},
	}, doc.Importance)
}

func TestWriteTrainingText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTraining(&buf, trainingReport(), FormatText))
	out := buf.String()
	assert.Contains(t, out, "Accuracy: 97.50%")
	assert.Contains(t, out, "TP=19 FP=0 TN=20 FN=1")
	assert.Contains(t, out, "entropy")
}

func TestWriteTrainingRejectsSARIF(t *testing.T) {
	assert.Error(t, WriteTraining(&bytes.Buffer{}, trainingReport(), FormatSARIF))
}
