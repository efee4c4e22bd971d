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
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/in-toto/go-leakscan/log"
)

// compiledAllowList is an AllowList with its patterns compiled once.
type compiledAllowList struct {
	stopWords []string
	regexes   []*regexp.Regexp
	paths     []glob.Glob
}

func compileAllowList(a *AllowList) (*compiledAllowList, error) {
	if a == nil {
		return nil, nil
	}

	c := &compiledAllowList{}
	for _, w := range a.StopWords {
		if w != "" {
			c.stopWords = append(c.stopWords, w)
		}
	}

	for _, pattern := range a.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist regex %q: %w", pattern, err)
		}
		c.regexes = append(c.regexes, re)
	}

	for _, pattern := range a.Paths {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist path glob %q: %w", pattern, err)
		}
		c.paths = append(c.paths, g)
	}

	return c, nil
}

// matchesLiteral reports whether s contains a stop word or matches a regex.
// Stop words are checked first since they are cheaper.
func (c *compiledAllowList) matchesLiteral(s string) bool {
	if c == nil {
		return false
	}

	for _, w := range c.stopWords {
		if strings.Contains(s, w) {
			log.Debugf("(detector) literal matched stop word: %s", w)
			return true
		}
	}

	for _, re := range c.regexes {
		if re.MatchString(s) {
			log.Debugf("(detector) literal matched allowlist regex: %s", re)
			return true
		}
	}

	return false
}

func (c *compiledAllowList) matchesPath(path string) bool {
	if c == nil {
		return false
	}

	slashed := filepath.ToSlash(path)
	for _, g := range c.paths {
		if g.Match(slashed) {
			return true
		}
	}

	return false
}
