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
	"strings"
	"sync/atomic"
	"time"

	"github.com/in-toto/go-leakscan/detector"
	"github.com/in-toto/go-leakscan/risk"
)

// Status is the lifecycle state of a Job.
type Status int32

const (
	Idle Status = iota
	Running
	Completed
	Cancelled
	NoFiles
)

var statusNames = [...]string{
	Idle:      "idle",
	Running:   "running",
	Completed: "completed",
	Cancelled: "cancelled",
	NoFiles:   "no_files",
}

func (s Status) String() string {
	if s < Idle || s > NoFiles {
		return fmt.Sprintf("Status(%d)", int32(s))
	}

	return statusNames[s]
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == Completed || s == Cancelled || s == NoFiles
}

func (s Status) MarshalText() ([]byte, error) {
	if s < Idle || s > NoFiles {
		return nil, fmt.Errorf("invalid status %d", int32(s))
	}

	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(string(text), name) {
			*s = Status(i)
			return nil
		}
	}

	return fmt.Errorf("unknown status %q", text)
}

// Summary describes a finished scan.
type Summary struct {
	Root   string `json:"root" jsonschema:"title=Root,description=Directory that was scanned"`
	Status Status `json:"status" jsonschema:"title=Status,description=Terminal status of the scan,enum=completed,enum=cancelled,enum=no_files"`

	FilesTotal   int `json:"filesTotal" jsonschema:"title=Files Total,description=Files selected for scanning"`
	FilesScanned int `json:"filesScanned" jsonschema:"title=Files Scanned,description=Files whose lines were inspected"`
	FilesSkipped int `json:"filesSkipped" jsonschema:"title=Files Skipped,description=Empty oversize or binary files"`
	FileErrors   int `json:"fileErrors" jsonschema:"title=File Errors,description=Files or directories that could not be read"`

	detector.LineStats

	ByTier map[risk.Tier]int `json:"byTier" jsonschema:"title=By Tier,description=Detections per risk tier"`

	// ModelAbsent is set when the scan ran without a model and classified nothing
	ModelAbsent bool `json:"modelAbsent,omitempty" jsonschema:"title=Model Absent,description=Whether the scan ran without a model"`

	StartedAt time.Time     `json:"startedAt" jsonschema:"title=Started At"`
	Duration  time.Duration `json:"duration" jsonschema:"title=Duration,description=Scan duration in nanoseconds"`
}

// Event is one item of a job's event stream: a Progress, a Result or the
// final Done.
type Event interface {
	isEvent()
}

// Progress is emitted after every file, whether it was scanned or skipped.
type Progress struct {
	Processed int
	Total     int
	// Fraction is Processed/Total
	Fraction float64
	// File is the root relative, slash separated path of the file
	File string
}

// Result carries one detection, emitted as soon as it is found.
type Result struct {
	Detection detector.Detection
}

// Done is the last event of every job.
type Done struct {
	Status  Status
	Summary Summary
}

func (Progress) isEvent() {}
func (Result) isEvent()   {}
func (Done) isEvent()     {}

// Job is one running scan. Its events must be drained until the channel is
// closed; the worker blocks while the channel is full.
type Job struct {
	ID   string
	Root string

	status  atomic.Int32
	events  chan Event
	cancel  context.CancelFunc
	done    chan struct{}
	summary Summary
}

// Events returns the job's event stream. The channel is closed after Done.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Cancel asks the job to stop. It is safe to call at any time and more than
// once. The job finishes with status Cancelled unless it already finished.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Status() Status {
	return Status(j.status.Load())
}

func (j *Job) setStatus(s Status) {
	j.status.Store(int32(s))
}

// Wait blocks until the job has finished and returns its summary. Events must
// be drained concurrently.
func (j *Job) Wait() Summary {
	<-j.done
	return j.summary
}

// Collect drains the job's events and returns every detection in emission
// order along with the summary.
func (j *Job) Collect() ([]detector.Detection, Summary) {
	var detections []detector.Detection
	for ev := range j.events {
		if r, ok := ev.(Result); ok {
			detections = append(detections, r.Detection)
		}
	}

	return detections, j.Wait()
}
