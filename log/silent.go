// Copyright 2025 The Witness Contributors
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

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// SilentLogger discards every message. It is the default logger.
type SilentLogger struct{}

func (l SilentLogger) Errorf(format string, args ...interface{}) {}
func (l SilentLogger) Error(args ...interface{})                 {}
func (l SilentLogger) Warnf(format string, args ...interface{})  {}
func (l SilentLogger) Warn(args ...interface{})                  {}
func (l SilentLogger) Debugf(format string, args ...interface{}) {}
func (l SilentLogger) Debug(args ...interface{})                 {}
func (l SilentLogger) Infof(format string, args ...interface{})  {}
func (l SilentLogger) Info(args ...interface{})                  {}

// ConsoleLogger writes every message with a level prefix. It is meant for tests
// and debugging; the CLI uses a logrus backed logger instead.
type ConsoleLogger struct {
	// Out defaults to os.Stderr when nil.
	Out io.Writer

	mu sync.Mutex
}

func (l *ConsoleLogger) write(level string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.Out
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintf(out, "[%s] %s\n", level, msg)
}

func (l *ConsoleLogger) Errorf(format string, args ...interface{}) {
	l.write("ERROR", fmt.Sprintf(format, args...))
}

func (l *ConsoleLogger) Error(args ...interface{}) {
	l.write("ERROR", fmt.Sprint(args...))
}

func (l *ConsoleLogger) Warnf(format string, args ...interface{}) {
	l.write("WARN", fmt.Sprintf(format, args...))
}

func (l *ConsoleLogger) Warn(args ...interface{}) {
	l.write("WARN", fmt.Sprint(args...))
}

func (l *ConsoleLogger) Debugf(format string, args ...interface{}) {
	l.write("DEBUG", fmt.Sprintf(format, args...))
}

func (l *ConsoleLogger) Debug(args ...interface{}) {
	l.write("DEBUG", fmt.Sprint(args...))
}

func (l *ConsoleLogger) Infof(format string, args ...interface{}) {
	l.write("INFO", fmt.Sprintf(format, args...))
}

func (l *ConsoleLogger) Info(args ...interface{}) {
	l.write("INFO", fmt.Sprint(args...))
}
