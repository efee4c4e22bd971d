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


package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/in-toto/go-leakscan/scanner"
	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"
)

const progressInterval = 100 * time.Millisecond

// progressPrinter redraws a single status line. It only draws on terminals.
type progressPrinter struct {
	out     io.Writer
	enabled bool
	limit   rate.Sometimes
	drawn   bool
}

func newProgressPrinter(out io.Writer, wanted bool) *progressPrinter {
	return &progressPrinter{
		out:     out,
		enabled: wanted && isTerminal(out),
		limit:   rate.Sometimes{Interval: progressInterval},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *progressPrinter) update(ev scanner.Progress) {
	if !p.enabled {
		return
	}

	p.limit.Do(func() {
		fmt.Fprintf(p.out, "\r\033[K%5.1f%% %d/%d %s", ev.Fraction*100, ev.Processed, ev.Total, ev.File)
		p.drawn = true
	})
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprint(p.out, "\r\033[K")
	}
}
