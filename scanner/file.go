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

package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/log"
)

// fileResult is the outcome of scanning one file.
type fileResult struct {
	stats      detector.LineStats
	detections []detector.Detection
	skipped    bool
	err        error
	// cancelled is set when the file was abandoned or never opened
	cancelled bool
}

// scanFile runs the detector over every line of t and passes each detection
// to emit as soon as it is found. Cancellation is checked before the file is
// opened and between lines.
func (s *Scanner) scanFile(ctx context.Context, t target, emit func(detector.Detection)) fileResult {
	var res fileResult
	if ctx.Err() != nil {
		res.cancelled = true
		return res
	}

	content, skip, err := s.readFile(t.path)
	if err != nil {
		log.Debugf("(scanner) error reading %s: %v", t.rel, err)
		res.err = err
		return res
	}

	if skip != "" {
		log.Debugf("(scanner) skipping %s: %s", t.rel, skip)
		res.skipped = true
		return res
	}

	for i, line := range splitLines(content) {
		if ctx.Err() != nil {
			res.cancelled = true
			return res
		}

		detections, stats := s.detector.ScanLine(t.rel, line, i+1)
		res.stats.Add(stats)
		for _, d := range detections {
			emit(d)
		}
	}

	return res
}

// readFile returns the decoded content of path, or a reason to skip it.
func (s *Scanner) readFile(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", "", err
	}

	if info.Size() == 0 {
		return "", "empty file", nil
	}

	maxBytes := int64(s.maxFileSizeMB) * 1024 * 1024
	if s.maxFileSizeMB > 0 && info.Size() > maxBytes {
		return "", fmt.Sprintf("file size %d exceeds the %d MB limit", info.Size(), s.maxFileSizeMB), nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", err
	}

	if len(data) == 0 {
		return "", "empty file", nil
	}

	if mime := mimetype.Detect(data); isBinaryFile(mime.String()) {
		return "", "binary content " + mime.String(), nil
	}

	// undecodable bytes are dropped, never fatal
	return strings.ToValidUTF8(string(data), ""), "", nil
}

// isBinaryFile reports whether mimeType describes content that is not text.
func isBinaryFile(mimeType string) bool {
	binaryPrefixes := []string{
		"application/octet-stream",
		"application/x-executable",
		"application/x-mach-binary",
		"application/x-sharedlib",
		"application/x-object",
		"application/zip",
		"application/gzip",
		"application/x-tar",
		"application/pdf",
		"image/",
		"audio/",
		"video/",
		"font/",
	}

	for _, prefix := range binaryPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}

	executableSuffixes := []string{
		"/x-executable",
		"/x-sharedlib",
		"/x-mach-binary",
	}

	for _, suffix := range executableSuffixes {
		if strings.HasSuffix(mimeType, suffix) {
			return true
		}
	}

	return false
}

// splitLines splits s on "\n", "\r\n" and a lone "\r". A trailing line break
// does not start another line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}

	if start < len(s) {
		lines = append(lines, s[start:])
	}

	return lines
}
