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

// Package dataset reads labeled training data and turns it into samples for
// the ensemble trainer.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/features"
	"github.com/in-toto/go-leakscan/log"
)

const (
	TextColumn  = "text"
	LabelColumn = "label"
)

// Record is one labeled example as read from disk.
type Record struct {
	Text  string
	Label int
}

// RowError reports a malformed row. Row counts the header as row 1.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Read parses CSV with a header row containing "text" and "label" columns in any
// position. Other columns are ignored. Labels must be 0 or 1.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("error reading dataset header: %w", err)
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))) {
		case TextColumn:
			textIdx = i
		case LabelColumn:
			labelIdx = i
		}
	}

	if textIdx < 0 || labelIdx < 0 {
		return nil, fmt.Errorf("dataset header must contain %q and %q columns, got %v", TextColumn, LabelColumn, header)
	}

	var records []Record
	for row := 2; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}

		if textIdx >= len(fields) || labelIdx >= len(fields) {
			return nil, &RowError{Row: row, Err: fmt.Errorf("expected at least %d fields, got %d", max(textIdx, labelIdx)+1, len(fields))}
		}

		label, err := strconv.Atoi(strings.TrimSpace(fields[labelIdx]))
		if err != nil || (label != 0 && label != 1) {
			return nil, &RowError{Row: row, Err: fmt.Errorf("label must be 0 or 1, got %q", fields[labelIdx])}
		}

		records = append(records, Record{Text: fields[textIdx], Label: label})
	}

	return records, nil
}

// ReadFile reads a CSV dataset from path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening dataset: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset %s: %w", path, err)
	}

	log.Debugf("(dataset) read %d records from %s", len(records), path)
	return records, nil
}

// Samples vectorizes records with the same feature extractor used at scan
// time. An empty text fails with features.ErrEmptyInput wrapped in a RowError.
func Samples(records []Record) ([]ensemble.Sample, error) {
	samples := make([]ensemble.Sample, 0, len(records))
	for i, rec := range records {
		v, err := features.Extract(rec.Text)
		if err != nil {
			return nil, &RowError{Row: i + 2, Err: err}
		}

		samples = append(samples, ensemble.Sample{Vector: v, Label: float64(rec.Label)})
	}

	return samples, nil
}

// Balance returns how many records carry each label.
func Balance(records []Record) (negatives, positives int) {
	for _, rec := range records {
		if rec.Label == 1 {
			positives++
		} else {
			negatives++
		}
	}

	return negatives, positives
}
