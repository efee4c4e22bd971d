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
	"encoding/json"
	"fmt"
	"io"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/scanner"
)

// jsonWriter writes one JSON object per line: a detection per Write and a
// final {"summary": ...} line.
type jsonWriter struct {
	enc *json.Encoder
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{enc: json.NewEncoder(w)}
}

func (j *jsonWriter) Write(d detector.Detection) error {
	if err := j.enc.Encode(d); err != nil {
		return fmt.Errorf("error encoding detection: %w", err)
	}

	return nil
}

func (j *jsonWriter) Close(summary scanner.Summary) error {
	if err := j.enc.Encode(struct {
		Summary scanner.Summary `json:"summary"`
	}{summary}); err != nil {
		return fmt.Errorf("error encoding summary: %w", err)
	}

	return nil
}
