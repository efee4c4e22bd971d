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

package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/in-toto/go-leakscan/features"
	"github.com/in-toto/go-leakscan/log"
)

const (
	defaultTrees              = 100
	defaultMaxDepth           = 4
	defaultLearningRate       = 0.1
	defaultLambda             = 1.0
	defaultGamma              = 0.0
	defaultMinChildWeight     = 1.0
	defaultMaxBins            = 256
	defaultValidationFraction = 0.2
	defaultSeed               = 42

	// probabilities are clipped this far from 0 and 1 in log-loss and base score
	probEpsilon = 1e-15
	minGain     = 1e-12
)

// Sample is one labeled training example. Label is 1 for a secret and 0 for
// anything else.
type Sample struct {
	Vector features.Vector
	Label  float64
}

// Params are the boosting hyperparameters.
type Params struct {
	Trees              int     `json:"trees" yaml:"trees"`
	MaxDepth           int     `json:"max_depth" yaml:"max_depth"`
	LearningRate       float64 `json:"learning_rate" yaml:"learning_rate"`
	Lambda             float64 `json:"lambda" yaml:"lambda"`
	Gamma              float64 `json:"gamma" yaml:"gamma"`
	MinChildWeight     float64 `json:"min_child_weight" yaml:"min_child_weight"`
	MaxBins            int     `json:"max_bins" yaml:"max_bins"`
	ValidationFraction float64 `json:"validation_fraction" yaml:"validation_fraction"`
	Seed               uint64  `json:"seed" yaml:"seed"`
}

func (p Params) validate() error {
	var errs []error
	if p.Trees < 1 {
		errs = append(errs, fmt.Errorf("trees must be at least 1, got %d", p.Trees))
	}
	if p.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max depth must be at least 1, got %d", p.MaxDepth))
	}
	if !(p.LearningRate > 0 && p.LearningRate <= 1) {
		errs = append(errs, fmt.Errorf("learning rate must be in (0, 1], got %v", p.LearningRate))
	}
	if p.Lambda < 0 || p.Gamma < 0 || p.MinChildWeight < 0 {
		errs = append(errs, errors.New("lambda, gamma and min child weight must not be negative"))
	}
	if p.MaxBins < 2 || p.MaxBins > math.MaxUint16 {
		errs = append(errs, fmt.Errorf("max bins must be in [2, %d], got %d", math.MaxUint16, p.MaxBins))
	}
	if p.ValidationFraction < 0 || p.ValidationFraction >= 1 {
		errs = append(errs, fmt.Errorf("validation fraction must be in [0, 1), got %v", p.ValidationFraction))
	}

	return errors.Join(errs...)
}

// Option configures a Trainer.
type Option func(*Trainer)

func WithTrees(n int) Option {
	return func(t *Trainer) {
		t.params.Trees = n
	}
}

func WithMaxDepth(depth int) Option {
	return func(t *Trainer) {
		t.params.MaxDepth = depth
	}
}

func WithLearningRate(rate float64) Option {
	return func(t *Trainer) {
		t.params.LearningRate = rate
	}
}

// WithLambda sets the L2 regularization applied to leaf values.
func WithLambda(lambda float64) Option {
	return func(t *Trainer) {
		t.params.Lambda = lambda
	}
}

// WithGamma sets the minimum gain a split must reach.
func WithGamma(gamma float64) Option {
	return func(t *Trainer) {
		t.params.Gamma = gamma
	}
}

// WithMinChildWeight sets the minimum hessian sum of each child of a split.
func WithMinChildWeight(weight float64) Option {
	return func(t *Trainer) {
		t.params.MinChildWeight = weight
	}
}

// WithMaxBins caps the number of histogram bins per feature.
func WithMaxBins(bins int) Option {
	return func(t *Trainer) {
		t.params.MaxBins = bins
	}
}

// WithValidationFraction sets the share of samples held out for diagnostics.
// Zero disables the hold-out split.
func WithValidationFraction(fraction float64) Option {
	return func(t *Trainer) {
		t.params.ValidationFraction = fraction
	}
}

// WithSeed sets the seed of the hold-out shuffle.
func WithSeed(seed uint64) Option {
	return func(t *Trainer) {
		t.params.Seed = seed
	}
}

// WithProgress registers a callback invoked after every boosting round.
func WithProgress(fn func(RoundMetrics)) Option {
	return func(t *Trainer) {
		t.progress = fn
	}
}

// Trainer fits an Ensemble with gradient boosting on logistic loss.
type Trainer struct {
	params   Params
	progress func(RoundMetrics)
}

// DefaultParams returns the hyperparameters NewTrainer starts from.
func DefaultParams() Params {
	return Params{
		Trees:              defaultTrees,
		MaxDepth:           defaultMaxDepth,
		LearningRate:       defaultLearningRate,
		Lambda:             defaultLambda,
		Gamma:              defaultGamma,
		MinChildWeight:     defaultMinChildWeight,
		MaxBins:            defaultMaxBins,
		ValidationFraction: defaultValidationFraction,
		Seed:               defaultSeed,
	}
}

func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		params: DefaultParams(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Params returns the trainer's hyperparameters.
func (t *Trainer) Params() Params {
	return t.params
}

// Fit trains Params().Trees trees on samples. There is no early stopping; the
// hold-out split only feeds the diagnostics in the returned Report. Fit checks
// ctx between boosting rounds.
func (t *Trainer) Fit(ctx context.Context, samples []Sample) (*Ensemble, *Report, error) {
	if err := t.params.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid training parameters: %w", err)
	}

	if len(samples) == 0 {
		return nil, nil, errors.New("no training samples")
	}

	for i, s := range samples {
		if s.Label != 0 && s.Label != 1 {
			return nil, nil, fmt.Errorf("sample %d has label %v, expected 0 or 1", i, s.Label)
		}
	}

	start := time.Now()
	train, valid := t.split(samples)
	log.Infof("(ensemble) training %d trees on %d samples (%d held out)", t.params.Trees, len(train), len(valid))

	base := logit(clip(meanLabel(train)))
	e := &Ensemble{
		baseScore:    base,
		learningRate: t.params.LearningRate,
		featureNames: features.Names(),
		trees:        make([]Tree, 0, t.params.Trees),
	}

	b := newBuilder(train, t.params)
	trainMargins := filled(len(train), base)
	validMargins := filled(len(valid), base)
	report := &Report{
		Params:         t.params,
		TrainSize:      len(train),
		ValidationSize: len(valid),
		History:        make([]RoundMetrics, 0, t.params.Trees),
	}

	for round := 0; round < t.params.Trees; round++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		tree := b.fitTree(trainMargins)
		e.trees = append(e.trees, tree)

		for i := range train {
			trainMargins[i] += tree.eval(&train[i].Vector)
		}
		for i := range valid {
			validMargins[i] += tree.eval(&valid[i].Vector)
		}

		m := RoundMetrics{Round: round + 1}
		m.TrainLogLoss, m.TrainError = lossAndError(train, trainMargins)
		if len(valid) > 0 {
			m.ValidationLogLoss, m.ValidationError = lossAndError(valid, validMargins)
		}
		report.History = append(report.History, m)

		if t.progress != nil {
			t.progress(m)
		}
	}

	if len(valid) > 0 {
		report.Evaluation = evaluate(valid, validMargins)
	} else {
		report.Evaluation = evaluate(train, trainMargins)
	}
	report.SplitCounts = e.SplitCounts()
	report.Duration = time.Since(start)

	log.Infof("(ensemble) training complete in %v: accuracy %.4f, f1 %.4f",
		report.Duration, report.Evaluation.Accuracy, report.Evaluation.F1)
	return e, report, nil
}

// split shuffles a copy of samples with the configured seed and holds out
// ValidationFraction of them, always keeping at least one training sample.
func (t *Trainer) split(samples []Sample) (train, valid []Sample) {
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)

	nValid := int(math.Round(float64(len(samples)) * t.params.ValidationFraction))
	if nValid >= len(samples) {
		nValid = len(samples) - 1
	}
	if nValid <= 0 {
		return shuffled, nil
	}

	r := rand.New(rand.NewPCG(t.params.Seed, t.params.Seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[nValid:], shuffled[:nValid]
}

// builder grows regression trees over a fixed, pre-binned training set.
type builder struct {
	params  Params
	samples []Sample
	cuts    [features.Count][]float64
	// bins[i*features.Count+f] is the bin of sample i on feature f
	bins []uint16
	grad []float64
	hess []float64
	rows []int
}

// newBuilder computes per-feature cut points: midpoints between distinct
// values when there are few of them, quantiles otherwise.
func newBuilder(samples []Sample, params Params) *builder {
	b := &builder{
		params:  params,
		samples: samples,
		bins:    make([]uint16, len(samples)*features.Count),
		grad:    make([]float64, len(samples)),
		hess:    make([]float64, len(samples)),
		rows:    make([]int, len(samples)),
	}

	values := make([]float64, len(samples))
	for f := 0; f < features.Count; f++ {
		for i, s := range samples {
			values[i] = s.Vector[f]
		}
		b.cuts[f] = cutPoints(values, params.MaxBins)

		for i, s := range samples {
			b.bins[i*features.Count+f] = uint16(binOf(b.cuts[f], s.Vector[f]))
		}
	}

	return b
}

// fitTree grows one tree against the gradients of the logistic loss at the
// current margins.
func (b *builder) fitTree(margins []float64) Tree {
	for i, s := range b.samples {
		p := sigmoid(margins[i])
		b.grad[i] = p - s.Label
		b.hess[i] = math.Max(p*(1-p), probEpsilon)
		b.rows[i] = i
	}

	tree := Tree{}
	b.grow(&tree, b.rows, 0)
	return tree
}

type splitCandidate struct {
	feature int
	cut     int
	gain    float64
}

// grow appends the subtree for rows to tree in pre-order and returns the index
// of its root.
func (b *builder) grow(tree *Tree, rows []int, depth int) int {
	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}

	id := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{ID: id})

	best, ok := b.bestSplit(rows, g, h, depth)
	if !ok {
		tree.Nodes[id].IsLeaf = true
		tree.Nodes[id].Value = -g / (h + b.params.Lambda) * b.params.LearningRate
		return id
	}

	// partition rows in place: bins <= cut go left
	left := 0
	for i, r := range rows {
		if int(b.bins[r*features.Count+best.feature]) <= best.cut {
			rows[left], rows[i] = rows[i], rows[left]
			left++
		}
	}

	tree.Nodes[id].Feature = best.feature
	tree.Nodes[id].Threshold = b.cuts[best.feature][best.cut]
	leftID := b.grow(tree, rows[:left], depth+1)
	rightID := b.grow(tree, rows[left:], depth+1)
	tree.Nodes[id].Left = leftID
	tree.Nodes[id].Right = rightID
	return id
}

// bestSplit scans the gradient histograms of every feature for the split with
// the highest gain G_L²/(H_L+λ) + G_R²/(H_R+λ) - G²/(H+λ) - γ. Ties keep the
// earliest feature and cut so training is deterministic.
func (b *builder) bestSplit(rows []int, g, h float64, depth int) (splitCandidate, bool) {
	best := splitCandidate{gain: minGain}
	found := false
	if depth >= b.params.MaxDepth || len(rows) < 2 || h < 2*b.params.MinChildWeight {
		return best, false
	}

	lambda := b.params.Lambda
	parent := g * g / (h + lambda)
	for f := 0; f < features.Count; f++ {
		cuts := b.cuts[f]
		if len(cuts) == 0 {
			continue
		}

		histG := make([]float64, len(cuts)+1)
		histH := make([]float64, len(cuts)+1)
		for _, r := range rows {
			bin := b.bins[r*features.Count+f]
			histG[bin] += b.grad[r]
			histH[bin] += b.hess[r]
		}

		var gl, hl float64
		for c := 0; c < len(cuts); c++ {
			gl += histG[c]
			hl += histH[c]
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}

			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent - b.params.Gamma
			if gain > best.gain {
				best = splitCandidate{feature: f, cut: c, gain: gain}
				found = true
			}
		}
	}

	return best, found
}

// cutPoints returns sorted split thresholds for values. A value goes left of
// cut c when it is strictly less than it.
func cutPoints(values []float64, maxBins int) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	distinct := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}

	if len(distinct) < 2 {
		return nil
	}

	var cuts []float64
	if len(distinct) <= maxBins {
		cuts = make([]float64, 0, len(distinct)-1)
		for i := 1; i < len(distinct); i++ {
			mid := distinct[i-1] + (distinct[i]-distinct[i-1])/2
			if mid <= distinct[i-1] {
				mid = distinct[i]
			}
			cuts = append(cuts, mid)
		}

		return cuts
	}

	// quantile cuts taken from the observed values, skipping the minimum so the
	// left side of every cut is non-empty
	for k := 1; k < maxBins; k++ {
		v := sorted[k*len(sorted)/maxBins]
		if v <= distinct[0] {
			continue
		}
		if len(cuts) > 0 && v <= cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, v)
	}

	return cuts
}

// binOf returns the number of cuts less than or equal to v.
func binOf(cuts []float64, v float64) int {
	lo, hi := 0, len(cuts)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cuts[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

func meanLabel(samples []Sample) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s.Label
	}

	return sum / float64(len(samples))
}

func clip(p float64) float64 {
	// keep the base score finite for single class data sets
	const eps = 1e-6
	return math.Min(math.Max(p, eps), 1-eps)
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}
