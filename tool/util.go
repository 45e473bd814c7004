// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"os"

	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/internal/base"
	"github.com/driverlev/lev/levfile"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)
var osExit = os.Exit

// mask is a pflag.Value for a block selection. It accepts kind names joined
// by "|", the names "all" and "traffic", and numbers such as 0x5. Selections
// of no blocks are rejected.
type mask blockkind.Mask

func (m *mask) String() string {
	return blockkind.Mask(*m).String()
}

func (m *mask) Type() string {
	return "mask"
}

func (m *mask) Set(v string) error {
	parsed, err := levfile.ParseSelection(v)
	if err != nil {
		return err
	}
	*m = mask(parsed)
	return nil
}

// format is a pflag.Value for a header format.
type format levfile.Format

func (f *format) String() string {
	if levfile.Format(*f) == levfile.FormatUnspecified {
		return ""
	}
	return levfile.Format(*f).String()
}

func (f *format) Type() string {
	return "format"
}

func (f *format) Set(v string) error {
	parsed, err := levfile.ParseFormat(v)
	if err != nil {
		return err
	}
	*f = format(parsed)
	return nil
}

// stderrLogger is a base.Logger that writes to stderr.
type stderrLogger struct{}

var _ base.Logger = stderrLogger{}

func (stderrLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(stderr, format+"\n", args...)
}

func (stderrLogger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, format+"\n", args...)
}

func (stderrLogger) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, format+"\n", args...)
	osExit(1)
}
