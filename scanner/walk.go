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
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
	"github.com/in-toto/go-leakscan/log"
)

// target is a file selected for scanning.
type target struct {
	path string
	rel  string
}

// filters decide which directories are pruned and which files are kept.
type filters struct {
	excludeDirs map[string]struct{}
	extensions  map[string]struct{}
	globs       []glob.Glob
	ignore      gitignore.Matcher
	skipPath    func(string) bool
}

func (s *Scanner) buildFilters(root string) (*filters, error) {
	f := &filters{
		excludeDirs: make(map[string]struct{}, len(s.excludeDirs)),
		extensions:  make(map[string]struct{}, len(s.extensions)),
		skipPath:    s.detector.SkipPath,
	}

	for _, d := range s.excludeDirs {
		f.excludeDirs[d] = struct{}{}
	}

	for _, ext := range s.extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = struct{}{}
	}

	for _, pattern := range s.excludeGlobs {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, err
		}
		f.globs = append(f.globs, g)
	}

	if s.gitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			log.Warnf("(scanner) error reading .gitignore files under %s: %v", root, err)
		} else if len(patterns) > 0 {
			f.ignore = gitignore.NewMatcher(patterns)
		}
	}

	return f, nil
}

func (f *filters) excluded(rel string, isDir bool) bool {
	for _, g := range f.globs {
		if g.Match(rel) {
			return true
		}
	}

	if f.ignore != nil && f.ignore.Match(strings.Split(rel, "/"), isDir) {
		return true
	}

	return false
}

// enumerate lists the files under root to scan, in lexical order. Directories
// and files that cannot be read are logged and counted, not fatal.
func (f *filters) enumerate(ctx context.Context, root string) ([]target, int, error) {
	var targets []target
	walkErrors := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			log.Debugf("(scanner) error walking %s: %v", path, err)
			walkErrors++
			return nil
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, ok := f.excludeDirs[d.Name()]; ok {
				return filepath.SkipDir
			}
			if f.excluded(rel, true) {
				log.Debugf("(scanner) pruning excluded directory %s", rel)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			log.Debugf("(scanner) skipping non regular file %s", rel)
			return nil
		}

		if _, ok := f.extensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}

		if f.excluded(rel, false) || f.skipPath(rel) {
			log.Debugf("(scanner) skipping excluded file %s", rel)
			return nil
		}

		targets = append(targets, target{path: path, rel: rel})
		return nil
	})

	return targets, walkErrors, err
}
