// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"github.com/driverlev/lev/levfile"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	level    *levelT
	opts     levfile.Options
}

// Option configures the tool.
type Option func(*T)

// DefaultOptions sets the options used when no --options file is given.
func DefaultOptions(opts levfile.Options) Option {
	return func(t *T) {
		t.opts = opts
	}
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{}
	for _, opt := range opts {
		opt(t)
	}

	t.level = newLevel(&t.opts)
	t.Commands = []*cobra.Command{
		t.level.Layout,
		t.level.Check,
		t.level.Extract,
		t.level.Rewrite,
		t.level.Kinds,
	}
	return t
}
