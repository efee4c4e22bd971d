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

// Package report writes scan results and training reports.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/in-toto/go-leakscan/scanner"
)

// Format selects a Writer implementation.
type Format string

const (
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
	FormatText  Format = "text"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatSARIF, FormatText, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Writer receives detections as a scan streams them and the summary once it
// is done.
type Writer interface {
	Write(d detector.Detection) error
	Close(summary scanner.Summary) error
}

type options struct {
	minTier     risk.Tier
	redact      bool
	toolVersion string
}

type Option func(*options)

// WithMinTier drops detections below tier.
func WithMinTier(tier risk.Tier) Option {
	return func(o *options) {
		o.minTier = tier
	}
}

// WithRedaction hides the middle of every matched literal.
func WithRedaction(redact bool) Option {
	return func(o *options) {
		o.redact = redact
	}
}

// WithToolVersion sets the version reported in SARIF output.
func WithToolVersion(version string) Option {
	return func(o *options) {
		o.toolVersion = version
	}
}

// NewWriter returns a Writer producing format on w.
func NewWriter(format Format, w io.Writer, opts ...Option) (Writer, error) {
	o := options{minTier: risk.Low}
	for _, opt := range opts {
		opt(&o)
	}

	var inner Writer
	switch format {
	case FormatJSON:
		inner = newJSONWriter(w)
	case FormatSARIF:
		inner = newSARIFWriter(w, o.toolVersion)
	case FormatText:
		inner = newTextWriter(w)
	default:
		return nil, fmt.Errorf("format %q is not supported for scan results", format)
	}

	return &filterWriter{inner: inner, opts: o}, nil
}

// filterWriter applies the tier filter and redaction shared by all formats.
type filterWriter struct {
	inner Writer
	opts  options
}

func (f *filterWriter) Write(d detector.Detection) error {
	if d.Tier < f.opts.minTier {
		return nil
	}

	if f.opts.redact {
		d.Text = d.Redacted()
	}

	return f.inner.Write(d)
}

func (f *filterWriter) Close(summary scanner.Summary) error {
	return f.inner.Close(summary)
}
