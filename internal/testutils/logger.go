// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package testutils

import (
	"fmt"
	"sync"
	"testing"
)

// Logger is a logger that records every line it is given and, if T is set,
// also writes it to the testing.TB.
type Logger struct {
	T testing.TB

	mu    sync.Mutex
	lines []string
}

func (l *Logger) record(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Infof implements base.Logger.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.record(format, args...)
	if l.T != nil {
		l.T.Logf(format, args...)
	}
}

// Errorf implements base.Logger.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.record(format, args...)
	if l.T != nil {
		l.T.Logf(format, args...)
	}
}

// Fatalf implements base.Logger.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.record(format, args...)
	if l.T == nil {
		panic(fmt.Sprintf(format, args...))
	}
	l.T.Helper()
	l.T.Fatalf(format, args...)
}

// Lines returns the recorded lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
