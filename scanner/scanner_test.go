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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/internal/testmodel"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credential = "abcdefghijklmnopqrst"

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func newScanner(t *testing.T, opts ...Option) *Scanner {
	t.Helper()
	det, err := detector.New(testmodel.LengthBand())
	require.NoError(t, err)
	return New(det, opts...)
}

type location struct {
	File string
	Line int
	Text string
	Tier risk.Tier
}

func locations(detections []detector.Detection) []location {
	out := make([]location, 0, len(detections))
	for _, d := range detections {
		out = append(out, location{File: d.File, Line: d.Line, Text: d.Text, Tier: d.Tier})
	}

	return out
}

// withoutTimestamps zeroes the only field allowed to differ between scans.
func withoutTimestamps(detections []detector.Detection) []detector.Detection {
	out := make([]detector.Detection, len(detections))
	for i, d := range detections {
		d.Timestamp = time.Time{}
		out[i] = d
	}

	return out
}

func TestScanFindsCredentialLiteral(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/settings.py": "import os\nAPI_KEY = \"" + credential + "\"\nname = \"ab\"\n",
	})

	detections, summary, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, detections, 1)

	d := detections[0]
	assert.Equal(t, "app/settings.py", d.File)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, credential, d.Text)
	assert.GreaterOrEqual(t, d.Tier, risk.Low)

	assert.Equal(t, Completed, summary.Status)
	assert.Equal(t, 1, summary.FilesTotal)
	assert.Equal(t, 1, summary.FilesScanned)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 1, summary.Detections)
	assert.Equal(t, 1, summary.ByTier[risk.Critical])
	assert.False(t, summary.ModelAbsent)
}

func TestScanShortLiteralHasNoCandidates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": `const x = "ab";`})

	detections, summary, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, detections)
	assert.Equal(t, 0, summary.Candidates)
	assert.Equal(t, Completed, summary.Status)
}

func TestScanEventStream(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.py": "k = \"" + credential + "\"\n",
		"b.py": "print('hello')\n",
	})

	j, err := newScanner(t).Start(context.Background(), root)
	require.NoError(t, err)
	assert.NotEmpty(t, j.ID)

	var events []Event
	for ev := range j.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 4)
	assert.IsType(t, Result{}, events[0])
	assert.Equal(t, Progress{Processed: 1, Total: 2, Fraction: 0.5, File: "a.py"}, events[1])
	assert.Equal(t, Progress{Processed: 2, Total: 2, Fraction: 1, File: "b.py"}, events[2])
	done, ok := events[3].(Done)
	require.True(t, ok)
	assert.Equal(t, Completed, done.Status)
	assert.Equal(t, Completed, j.Status())
	assert.Equal(t, done.Summary, j.Wait())
}

func TestScanPrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/pkg/index.js": "k = \"" + credential + "\"\n",
		".git/config.txt":           "k = \"" + credential + "\"\n",
		"venv/lib/site.py":          "k = \"" + credential + "\"\n",
		"src/main.go":               "k := \"" + credential + "\"\n",
		"logo.png":                  "k = \"" + credential + "\"\n",
		"notes.txt":                 "nothing here\n",
	})

	detections, summary, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FilesTotal)
	require.Len(t, detections, 1)
	assert.Equal(t, "src/main.go", detections[0].File)
}

func TestScanExcludeGlobsAndGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":         "secrets.env\nlogs/\n",
		"secrets.env":        "TOKEN=\"" + credential + "\"\n",
		"logs/run.txt":       "k = \"" + credential + "\"\n",
		"pkg/a_test.go":      "k := \"" + credential + "\"\n",
		"fixtures/data.json": `{"k": "` + credential + `"}`,
		"pkg/a.go":           "k := \"" + credential + "\"\n",
	})

	detections, summary, err := newScanner(t, WithExcludeGlobs("**/*_test.go", "fixtures")).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesTotal)
	require.Len(t, detections, 1)
	assert.Equal(t, "pkg/a.go", detections[0].File)

	detections, _, err = newScanner(t, WithGitignore(false)).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, detections, 5)
}

func TestScanAllowListPaths(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"testdata/keys.py": "k = \"" + credential + "\"\n",
		"main.py":          "k = \"" + credential + "\"\n",
	})

	det, err := detector.New(testmodel.LengthBand(), detector.WithAllowList(detector.AllowList{Paths: []string{"testdata/**"}}))
	require.NoError(t, err)

	detections, summary, err := New(det).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesTotal)
	require.Len(t, detections, 1)
	assert.Equal(t, "main.py", detections[0].File)
}

func TestScanNoFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"image.bin": "data"})

	j, err := newScanner(t).Start(context.Background(), root)
	require.NoError(t, err)

	var events []Event
	for ev := range j.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 1)
	done := events[0].(Done)
	assert.Equal(t, NoFiles, done.Status)
	assert.Equal(t, 0, done.Summary.FilesTotal)
	assert.Equal(t, NoFiles, j.Status())
}

func TestScanSkipsEmptyBinaryAndOversizeFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"empty.py": "",
		"blob.txt": "\x00\x01\x02\x03\x04\x05\x06\x07\x00\x00\xff\xfe",
		"big.txt":  strings.Repeat("k = \""+credential+"\"\n", 60000),
		"ok.py":    "k = \"" + credential + "\"\n",
	})

	detections, summary, err := newScanner(t, WithMaxFileSizeMB(1)).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.FilesTotal)
	assert.Equal(t, 3, summary.FilesSkipped)
	assert.Equal(t, 1, summary.FilesScanned)
	assert.Equal(t, 0, summary.FileErrors)
	assert.Len(t, detections, 1)
}

func TestScanDropsInvalidUTF8AndSplitsAllLineBreaks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "first\r\nk = \"abcdefghij\xffklmnopqrst\"\rj = 'zyxwvutsrqponmlkjihg'\n",
	})

	detections, _, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []location{
		{File: "a.txt", Line: 2, Text: credential, Tier: risk.Critical},
		{File: "a.txt", Line: 3, Text: "zyxwvutsrqponmlkjihg", Tier: risk.Critical},
	}, locations(detections))
}

func TestScanWithoutModel(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.py": "k = \"" + credential + "\"\n"})

	det, err := detector.New(nil)
	require.NoError(t, err)

	detections, summary, err := New(det).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, detections)
	assert.Equal(t, Completed, summary.Status)
	assert.True(t, summary.ModelAbsent)
	assert.Equal(t, 1, summary.Unclassified)
	assert.Equal(t, 1, summary.FilesScanned)
}

func manyFiles(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	files := make(map[string]string, n)
	for i := 0; i < n; i++ {
		files[fmt.Sprintf("f%02d.py", i)] = fmt.Sprintf("a = 'x'\nk%d = \"%s%02d\"\n", i, credential, i)
	}
	writeFiles(t, root, files)
	return root
}

func TestScanIsDeterministic(t *testing.T) {
	root := manyFiles(t, 12)

	first, _, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	second, _, err := newScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)
	sharded, summary, err := newScanner(t, WithWorkers(4)).Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, first, 12)
	assert.Equal(t, withoutTimestamps(first), withoutTimestamps(second))
	assert.Equal(t, withoutTimestamps(first), withoutTimestamps(sharded))
	assert.Equal(t, "f00.py", first[0].File)
	assert.Equal(t, "f11.py", first[11].File)
	assert.Equal(t, 12, summary.FilesScanned)
}

func TestScanCancelledAfterFile(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			root := manyFiles(t, 6)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s := newScanner(t, WithWorkers(workers), WithProgressFunc(func(p Progress) {
				if p.Processed == 2 {
					cancel()
				}
			}))

			j, err := s.Start(ctx, root)
			require.NoError(t, err)

			progress := 0
			var detections []detector.Detection
			for ev := range j.Events() {
				switch e := ev.(type) {
				case Progress:
					progress++
				case Result:
					detections = append(detections, e.Detection)
				}
			}

			summary := j.Wait()
			assert.Equal(t, Cancelled, summary.Status)
			assert.Equal(t, Cancelled, j.Status())
			assert.Equal(t, 2, progress)
			assert.Equal(t, 2, summary.FilesScanned)
			require.Len(t, detections, 2)
			assert.Equal(t, "f00.py", detections[0].File)
			assert.Equal(t, "f01.py", detections[1].File)
		})
	}
}

func TestScanCancelledBeforeStart(t *testing.T) {
	root := manyFiles(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detections, summary, err := newScanner(t).Scan(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, detections)
	assert.Equal(t, Cancelled, summary.Status)
}

func TestJobCancel(t *testing.T) {
	root := manyFiles(t, 20)
	j, err := newScanner(t, WithEventBuffer(0)).Start(context.Background(), root)
	require.NoError(t, err)

	j.Cancel()
	j.Cancel()
	_, summary := j.Collect()
	assert.True(t, summary.Status.Terminal())
	assert.LessOrEqual(t, summary.FilesScanned, 20)
}

func TestStartErrors(t *testing.T) {
	_, err := New(nil).Start(context.Background(), t.TempDir())
	assert.Error(t, err)

	_, err = newScanner(t).Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = newScanner(t).Start(context.Background(), file)
	assert.Error(t, err)

	_, err = newScanner(t, WithExcludeGlobs("[")).Start(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, splitLines("a\nb\r\nc\rd"))
	assert.Equal(t, []string{"a", ""}, splitLines("a\n\n"))
	assert.Equal(t, []string{"", "a"}, splitLines("\r\na"))
	assert.Nil(t, splitLines(""))
}

func TestIsBinaryFile(t *testing.T) {
	assert.True(t, isBinaryFile("application/octet-stream"))
	assert.True(t, isBinaryFile("image/png"))
	assert.False(t, isBinaryFile("text/plain; charset=utf-8"))
	assert.False(t, isBinaryFile("application/json"))
}

func TestStatusText(t *testing.T) {
	out, err := json.Marshal(Summary{Status: Cancelled, ByTier: map[risk.Tier]int{risk.High: 2}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"status":"cancelled"`)
	assert.Contains(t, string(out), `"byTier":{"HIGH":2}`)

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("no_files")))
	assert.Equal(t, NoFiles, s)
	assert.False(t, Running.Terminal())
}

func TestNewFromOptions(t *testing.T) {
	s, err := NewFromOptions(map[string]any{
		"workers":      3,
		"exclude-glob": []string{"docs/**"},
		"gitignore":    false,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.workers)
	assert.Equal(t, []string{"docs/**"}, s.excludeGlobs)
	assert.False(t, s.gitignore)
	assert.Equal(t, DefaultExtensions(), s.extensions)

	_, err = NewFromOptions(map[string]any{"workers": 0})
	assert.Error(t, err)

	assert.Len(t, RegistryEntry().Options, 6)
}

func TestRootVanishingBeforeWalk(t *testing.T) {
	var buf strings.Builder
	log.SetLogger(&log.ConsoleLogger{Out: &buf})
	t.Cleanup(func() { log.SetLogger(nil) })

	s := newScanner(t, WithGitignore(false))
	f, err := s.buildFilters(t.TempDir())
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "gone")
	j := &Job{
		ID:     "vanished",
		Root:   missing,
		events: make(chan Event, 1),
		cancel: func() {},
		done:   make(chan struct{}),
	}
	s.run(context.Background(), j, f)

	_, summary := j.Collect()
	assert.Equal(t, NoFiles, summary.Status)
	assert.Equal(t, 1, summary.FileErrors)
	assert.Contains(t, buf.String(), "(scanner) error walking "+missing+": ")
	assert.NotContains(t, buf.String(), "%!")
}

func TestDoneSummaryIsACopy(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.py": "k = \"" + credential + "\"\n"})

	j, err := newScanner(t).Start(context.Background(), root)
	require.NoError(t, err)

	var done Done
	for ev := range j.Events() {
		if d, ok := ev.(Done); ok {
			done = d
		}
	}

	done.Summary.ByTier[risk.Critical] = 99
	assert.Equal(t, 1, j.Wait().ByTier[risk.Critical])
}
