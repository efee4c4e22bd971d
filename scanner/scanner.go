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

// Package scanner walks a directory tree and streams the detections of every
// eligible file as a cancellable Job.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/log"
	"github.com/in-toto/go-leakscan/risk"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

// Scanner starts scan jobs. One Scanner may run any number of jobs at once.
type Scanner struct {
	detector *detector.Detector

	excludeDirs   []string
	extensions    []string
	excludeGlobs  []string
	gitignore     bool
	maxFileSizeMB int
	workers       int
	eventBuffer   int
	onProgress    func(Progress)
}

// New returns a scanner running det over every file. The defaults prune
// DefaultExcludeDirs and keep DefaultExtensions.
func New(det *detector.Detector, opts ...Option) *Scanner {
	s := &Scanner{
		detector:      det,
		excludeDirs:   DefaultExcludeDirs(),
		extensions:    DefaultExtensions(),
		gitignore:     defaultGitignore,
		maxFileSizeMB: defaultMaxFileSizeMB,
		workers:       defaultWorkers,
		eventBuffer:   defaultEventBuffer,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates root and begins scanning it in the background. Cancelling
// ctx cancels the job.
func (s *Scanner) Start(ctx context.Context, root string) (*Job, error) {
	if s.detector == nil {
		return nil, errors.New("scanner has no detector")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("error reading scan root: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	f, err := s.buildFilters(root)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude glob: %w", err)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:     uuid.NewString(),
		Root:   root,
		events: make(chan Event, s.eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	j.setStatus(Running)

	go s.run(jobCtx, j, f)
	return j, nil
}

// Scan runs a job to completion and returns its detections and summary.
func (s *Scanner) Scan(ctx context.Context, root string) ([]detector.Detection, Summary, error) {
	j, err := s.Start(ctx, root)
	if err != nil {
		return nil, Summary{}, err
	}

	detections, summary := j.Collect()
	return detections, summary, nil
}

func (s *Scanner) run(ctx context.Context, j *Job, f *filters) {
	sum := Summary{
		Root:        j.Root,
		ByTier:      make(map[risk.Tier]int),
		ModelAbsent: s.detector.ModelAbsent(),
		StartedAt:   time.Now().UTC(),
	}

	defer func() {
		j.cancel()
		sum.Duration = time.Since(sum.StartedAt)
		j.summary = sum
		j.setStatus(sum.Status)
		// Done carries its own copy of the tier counts
		done := sum
		done.ByTier = maps.Clone(sum.ByTier)
		j.events <- Done{Status: sum.Status, Summary: done}
		close(j.events)
		close(j.done)
		log.Infof("(scanner) job %s %s: %d files, %d detections", j.ID, sum.Status, sum.FilesScanned, sum.Detections)
	}()

	targets, walkErrors, err := f.enumerate(ctx, j.Root)
	sum.FileErrors += walkErrors
	if err != nil {
		if ctx.Err() != nil {
			sum.Status = Cancelled
			return
		}

		// the walk failed at the root, nothing was enumerated
		log.Errorf("(scanner) error walking %s: %v", j.Root, err)
		sum.FileErrors++
		sum.Status = NoFiles
		return
	}

	sum.FilesTotal = len(targets)
	if len(targets) == 0 {
		log.Infof("(scanner) no files to scan under %s", j.Root)
		sum.Status = NoFiles
		return
	}

	log.Debugf("(scanner) job %s scanning %d files under %s with %d workers", j.ID, len(targets), j.Root, s.workers)
	if s.workers > 1 {
		sum.Status = s.runSharded(ctx, j, targets, &sum)
	} else {
		sum.Status = s.runSequential(ctx, j, targets, &sum)
	}
}

func (s *Scanner) runSequential(ctx context.Context, j *Job, targets []target, sum *Summary) Status {
	for i, t := range targets {
		res := s.scanFile(ctx, t, func(d detector.Detection) {
			j.events <- Result{Detection: d}
			sum.ByTier[d.Tier]++
		})

		if res.cancelled {
			sum.LineStats.Add(res.stats)
			return Cancelled
		}

		s.record(j, sum, res, i, len(targets), t.rel)
	}

	return Completed
}

// runSharded scans files on a bounded pool and re-serializes their events in
// file order, so the stream matches a sequential scan.
func (s *Scanner) runSharded(ctx context.Context, j *Job, targets []target, sum *Summary) Status {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan fileResult, len(targets))
	for i := range slots {
		slots[i] = make(chan fileResult, 1)
	}

	g := &errgroup.Group{}
	g.SetLimit(s.workers)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, t := range targets {
			if ctx.Err() != nil {
				for ; i < len(targets); i++ {
					slots[i] <- fileResult{cancelled: true}
				}
				break
			}

			g.Go(func() error {
				var found []detector.Detection
				res := s.scanFile(ctx, t, func(d detector.Detection) {
					found = append(found, d)
				})
				res.detections = found
				slots[i] <- res
				return nil
			})
		}

		// never returns an error, workers report through their slot
		_ = g.Wait()
	}()

	status := Completed
	for i, t := range targets {
		res := <-slots[i]
		if ctx.Err() != nil {
			status = Cancelled
			break
		}

		for _, d := range res.detections {
			j.events <- Result{Detection: d}
			sum.ByTier[d.Tier]++
		}

		if res.cancelled {
			sum.LineStats.Add(res.stats)
			status = Cancelled
			break
		}

		s.record(j, sum, res, i, len(targets), t.rel)
	}

	cancel()
	<-dispatched
	return status
}

// record folds a finished file into the summary and emits its Progress.
func (s *Scanner) record(j *Job, sum *Summary, res fileResult, i, total int, rel string) {
	switch {
	case res.err != nil:
		sum.FileErrors++
	case res.skipped:
		sum.FilesSkipped++
	default:
		sum.FilesScanned++
	}
	sum.LineStats.Add(res.stats)

	p := Progress{
		Processed: i + 1,
		Total:     total,
		Fraction:  float64(i+1) / float64(total),
		File:      rel,
	}

	j.events <- p
	if s.onProgress != nil {
		s.onProgress(p)
	}
}
