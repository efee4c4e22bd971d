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

// Package detector scores the quoted literals of a single line: candidate
// extraction, allowlist filtering, feature extraction, model inference and
// risk tiering. A Detector is safe for concurrent use.
package detector

import (
	"errors"
	"time"

	"github.com/in-toto/go-leakscan/candidate"
	"github.com/in-toto/go-leakscan/ensemble"
	"github.com/in-toto/go-leakscan/features"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/risk"
	"github.com/jellydator/ttlcache/v3"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Defaults of the literal probability memo.
const (
	DefaultCacheCapacity = 10000
	DefaultCacheTTL      = 10 * time.Minute
)

type Detector struct {
	model *ensemble.Ensemble

	allowList          *AllowList
	gitleaksEnabled    bool
	gitleaksConfigPath string
	cacheCapacity      uint64
	cacheTTL           time.Duration
	now                func() time.Time

	allow    *compiledAllowList
	gitleaks *detect.Detector
	cache    *ttlcache.Cache[string, float64]
}

type Option func(*Detector)

// WithAllowList suppresses literals and paths matched by a.
func WithAllowList(a AllowList) Option {
	return func(d *Detector) {
		d.allowList = &a
	}
}

// WithGitleaks enables corroboration of detections with the gitleaks rule set.
func WithGitleaks(enabled bool) Option {
	return func(d *Detector) {
		d.gitleaksEnabled = enabled
	}
}

// WithGitleaksConfig loads gitleaks rules from path instead of the defaults.
// It implies WithGitleaks(true).
func WithGitleaksConfig(path string) Option {
	return func(d *Detector) {
		d.gitleaksConfigPath = path
		if path != "" {
			d.gitleaksEnabled = true
		}
	}
}

// WithCache sizes the memo of literal probabilities. A capacity of zero
// disables it.
func WithCache(capacity uint64, ttl time.Duration) Option {
	return func(d *Detector) {
		d.cacheCapacity = capacity
		d.cacheTTL = ttl
	}
}

// WithClock replaces time.Now for detection timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// New returns a detector scoring with model. A nil model is allowed: the
// detector then finds candidates but classifies none of them.
func New(model *ensemble.Ensemble, opts ...Option) (*Detector, error) {
	d := &Detector{
		model:         model,
		cacheCapacity: DefaultCacheCapacity,
		cacheTTL:      DefaultCacheTTL,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	allow, err := compileAllowList(d.allowList)
	if err != nil {
		return nil, err
	}
	d.allow = allow

	if d.gitleaksEnabled {
		gl, err := newGitleaksDetector(d.gitleaksConfigPath)
		if err != nil {
			return nil, err
		}
		d.gitleaks = gl
	}

	if d.cacheCapacity > 0 {
		d.cache = ttlcache.New[string, float64](
			ttlcache.WithTTL[string, float64](d.cacheTTL),
			ttlcache.WithCapacity[string, float64](d.cacheCapacity),
		)
	}

	if model == nil {
		log.Warnf("(detector) no model loaded, candidates will not be classified")
	}

	return d, nil
}

// ModelAbsent reports whether the detector runs without a model.
func (d *Detector) ModelAbsent() bool {
	return d.model == nil
}

// SkipPath reports whether path matches an allowlist path glob.
func (d *Detector) SkipPath(path string) bool {
	return d.allow.matchesPath(path)
}

// Probability scores a single literal. It returns ensemble.ErrModelAbsent
// without a model and features.ErrEmptyInput for an empty literal.
func (d *Detector) Probability(text string) (float64, error) {
	if d.model == nil {
		return 0, ensemble.ErrModelAbsent
	}

	if d.cache != nil {
		if item := d.cache.Get(text); item != nil {
			return item.Value(), nil
		}
	}

	v, err := features.Extract(text)
	if err != nil {
		return 0, err
	}

	p, err := d.model.Infer(v[:])
	if err != nil {
		return 0, err
	}

	if d.cache != nil {
		d.cache.Set(text, p, ttlcache.DefaultTTL)
	}

	return p, nil
}

// ScanLine returns the detections of line in order of appearance together
// with what happened to each candidate. Failures of single candidates are
// counted and skipped.
func (d *Detector) ScanLine(file, line string, lineNum int) ([]Detection, LineStats) {
	var stats LineStats
	candidates := candidate.Filter(line, lineNum)
	stats.Candidates = len(candidates)
	if len(candidates) == 0 {
		return nil, stats
	}

	if d.model == nil {
		stats.Unclassified = len(candidates)
		return nil, stats
	}

	var detections []Detection
	for _, c := range candidates {
		if d.allow.matchesLiteral(c.Text) {
			stats.Allowlisted++
			continue
		}

		p, err := d.Probability(c.Text)
		if err != nil {
			var infErr *ensemble.InferenceError
			switch {
			case errors.As(err, &infErr):
				stats.InferenceErrors++
			default:
				stats.FeatureErrors++
			}
			log.Debugf("(detector) skipping literal on %s:%d: %v", file, lineNum, err)
			continue
		}

		tier := risk.Classify(p)
		if !tier.Reportable() {
			continue
		}

		col := column(line, c.Offset)
		fp := fingerprint(c.Text)
		detections = append(detections, Detection{
			ID:          detectionID(file, c.Line, col, fp),
			Tier:        tier,
			Text:        c.Text,
			File:        file,
			Line:        c.Line,
			Column:      col,
			Score:       risk.Score(p),
			Probability: p,
			Fingerprint: fp,
			Timestamp:   d.now().UTC(),
		})
	}

	d.corroborate(line, detections)
	stats.Detections = len(detections)
	return detections, stats
}
