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
	"fmt"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/registry"
)

const (
	Name = "scan"

	defaultGitignore     = true
	defaultMaxFileSizeMB = 10
	defaultWorkers       = 1
	defaultEventBuffer   = 64
)

var (
	defaultExcludeDirs = []string{
		".git", ".hg", ".svn",
		"venv", ".venv", "env",
		"node_modules", "__pycache__", ".mypy_cache", ".pytest_cache", ".tox",
		".idea", ".gradle",
		"build", "dist", "target", "vendor",
	}

	defaultExtensions = []string{
		".py", ".js", ".ts", ".jsx", ".tsx", ".go", ".java", ".kt", ".rb", ".php",
		".cs", ".c", ".cpp", ".h", ".rs", ".swift", ".sh",
		".json", ".txt", ".md", ".env", ".yml", ".yaml", ".toml", ".ini", ".cfg",
		".conf", ".properties", ".xml", ".html",
	}
)

// DefaultExcludeDirs returns the directory names pruned by default.
func DefaultExcludeDirs() []string {
	return append([]string(nil), defaultExcludeDirs...)
}

// DefaultExtensions returns the file extensions scanned by default.
func DefaultExtensions() []string {
	return append([]string(nil), defaultExtensions...)
}

var scannerRegistry = registry.New[*Scanner]()

func init() {
	scannerRegistry.Register(Name, func() *Scanner { return New(nil) },
		registry.StringSliceConfigOption(
			"exclude-dirs",
			"Directory names that are never descended into",
			DefaultExcludeDirs(),
			func(s *Scanner, dirs []string) (*Scanner, error) {
				WithExcludeDirs(dirs...)(s)
				return s, nil
			},
		),
		registry.StringSliceConfigOption(
			"extensions",
			"File extensions to scan",
			DefaultExtensions(),
			func(s *Scanner, exts []string) (*Scanner, error) {
				WithExtensions(exts...)(s)
				return s, nil
			},
		),
		registry.StringSliceConfigOption(
			"exclude-glob",
			"Root relative path globs of files and directories to skip",
			nil,
			func(s *Scanner, globs []string) (*Scanner, error) {
				WithExcludeGlobs(globs...)(s)
				return s, nil
			},
		),
		registry.BoolConfigOption(
			"gitignore",
			"Skip files ignored by .gitignore files under the scan root",
			defaultGitignore,
			func(s *Scanner, enabled bool) (*Scanner, error) {
				WithGitignore(enabled)(s)
				return s, nil
			},
		),
		registry.IntConfigOption(
			"max-file-size-mb",
			"Skip files larger than this many megabytes, 0 for no limit",
			defaultMaxFileSizeMB,
			func(s *Scanner, size int) (*Scanner, error) {
				if size < 0 {
					return s, fmt.Errorf("max file size must not be negative")
				}
				WithMaxFileSizeMB(size)(s)
				return s, nil
			},
		),
		registry.IntConfigOption(
			"workers",
			"Number of files scanned concurrently",
			defaultWorkers,
			func(s *Scanner, workers int) (*Scanner, error) {
				if workers < 1 {
					return s, fmt.Errorf("workers must be at least 1")
				}
				WithWorkers(workers)(s)
				return s, nil
			},
		),
	)
}

// RegistryEntry returns the registration of the scanner options, used to
// generate command line flags.
func RegistryEntry() registry.Entry[*Scanner] {
	entry, _ := scannerRegistry.Entry(Name)
	return entry
}

// NewFromOptions builds a scanner from option values keyed by option name and
// applies opts on top. Missing values keep their defaults.
func NewFromOptions(values map[string]any, opts ...Option) (*Scanner, error) {
	s, err := scannerRegistry.Build(Name, values)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

type Option func(*Scanner)

// WithDetector replaces the detector run over every line.
func WithDetector(d *detector.Detector) Option {
	return func(s *Scanner) {
		s.detector = d
	}
}

func WithExcludeDirs(dirs ...string) Option {
	return func(s *Scanner) {
		s.excludeDirs = dirs
	}
}

func WithExtensions(exts ...string) Option {
	return func(s *Scanner) {
		s.extensions = exts
	}
}

func WithExcludeGlobs(globs ...string) Option {
	return func(s *Scanner) {
		s.excludeGlobs = globs
	}
}

func WithGitignore(enabled bool) Option {
	return func(s *Scanner) {
		s.gitignore = enabled
	}
}

func WithMaxFileSizeMB(size int) Option {
	return func(s *Scanner) {
		s.maxFileSizeMB = size
	}
}

// WithWorkers scans up to n files concurrently. Events keep file order.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithEventBuffer sets the capacity of each job's event channel.
func WithEventBuffer(n int) Option {
	return func(s *Scanner) {
		if n < 0 {
			n = 0
		}
		s.eventBuffer = n
	}
}

// WithProgressFunc registers fn to be called synchronously after every file,
// right after its Progress event is sent.
func WithProgressFunc(fn func(Progress)) Option {
	return func(s *Scanner) {
		s.onProgress = fn
	}
}
