// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/internal/base"
)

// ReaderOptions holds the parameters needed for reading a level file.
type ReaderOptions struct {
	// Selection restricts the blocks that ReadBlock will load. Blocks outside
	// the selection are treated as absent. Selection only affects loading: the
	// Table returned by Reader.Table always describes the whole file.
	//
	// The zero value selects every block, so a selection cannot be empty;
	// ParseSelection rejects selections that name no block.
	Selection blockkind.Mask

	// Strict makes NewReader fail when the header contains a stray handle on
	// a slot that the presence mask declares absent, or on a reserved slot.
	// When false such handles are dropped and logged.
	Strict bool

	// Logger receives a line per stray handle. The default is
	// base.NoopLogger{}; stray handles are always available from
	// Reader.Inconsistencies.
	Logger base.Logger
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o ReaderOptions) EnsureDefaults() ReaderOptions {
	if o.Selection == 0 {
		o.Selection = blockkind.MaskAll
	}
	if o.Logger == nil {
		o.Logger = base.NoopLogger{}
	}
	return o
}

// ParseSelection parses a ReaderOptions.Selection value in the syntax of
// blockkind.ParseMask. Masks that select no defined block kind, such as
// "none", are rejected: the zero Selection means every block.
func ParseSelection(s string) (blockkind.Mask, error) {
	m, err := blockkind.ParseMask(s)
	if err != nil {
		return 0, err
	}
	if m&blockkind.Defined == 0 {
		return 0, errors.Newf("lev: selection %q selects no blocks", s)
	}
	return m, nil
}

// WriterOptions holds the parameters used to control building a level file.
type WriterOptions struct {
	// Format is the header format to write. The default is FormatLegacy.
	Format Format

	// Alignment is the byte alignment of the start of every block. It must be
	// a power of two. The default value is 4.
	Alignment int

	// Logger receives a summary line when the file is finished. The default is
	// base.NoopLogger.
	Logger base.Logger
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o WriterOptions) EnsureDefaults() WriterOptions {
	if o.Format == FormatUnspecified {
		o.Format = FormatDefault
	}
	if o.Alignment <= 0 {
		o.Alignment = 4
	}
	if o.Logger == nil {
		o.Logger = base.NoopLogger{}
	}
	return o
}

// Validate verifies that the options are mutually consistent.
func (o WriterOptions) Validate() error {
	var buf strings.Builder
	if o.Format < FormatLegacy || o.Format > FormatMax {
		fmt.Fprintf(&buf, "Format (%d) must be between %d and %d\n", o.Format, FormatLegacy, FormatMax)
	}
	if o.Alignment <= 0 || o.Alignment&(o.Alignment-1) != 0 {
		fmt.Fprintf(&buf, "Alignment (%d) must be a power of two\n", o.Alignment)
	}
	if buf.Len() == 0 {
		return nil
	}
	return errors.New(buf.String())
}

// Options groups the reader and writer options so they can be stored in and
// loaded from an INI-style options file:
//
//	[Reader]
//	  selection=all
//	  strict=false
//
//	[Writer]
//	  alignment=4
//	  format=legacy
//
// Loggers are not serialized.
type Options struct {
	Reader ReaderOptions
	Writer WriterOptions
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	o.Reader = o.Reader.EnsureDefaults()
	o.Writer = o.Writer.EnsureDefaults()
	return o
}

// String returns a string representation of the options that can be parsed
// by Options.Parse.
func (o *Options) String() string {
	r := o.Reader.EnsureDefaults()
	w := o.Writer.EnsureDefaults()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "[Reader]\n")
	fmt.Fprintf(&buf, "  selection=%s\n", r.Selection)
	fmt.Fprintf(&buf, "  strict=%t\n", r.Strict)
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Writer]\n")
	fmt.Fprintf(&buf, "  alignment=%d\n", w.Alignment)
	fmt.Fprintf(&buf, "  format=%s\n", w.Format)
	return buf.String()
}

// Parse parses the options from the specified string. Note that certain
// options cannot be parsed into populated fields. For example, the Logger is
// left untouched. Unknown sections and keys are ignored so that options files
// written by newer versions can still be read.
func (o *Options) Parse(s string) error {
	return parseOptions(s, func(section, key, value string) error {
		var err error
		switch section {
		case "Reader":
			switch key {
			case "selection":
				o.Reader.Selection, err = ParseSelection(value)
			case "strict":
				o.Reader.Strict, err = strconv.ParseBool(value)
			}
		case "Writer":
			switch key {
			case "alignment":
				o.Writer.Alignment, err = strconv.Atoi(value)
			case "format":
				o.Writer.Format, err = ParseFormat(value)
			}
		}
		if err != nil {
			return errors.Wrapf(err, "lev: invalid value for [%s] %s", errors.Safe(section), errors.Safe(key))
		}
		return nil
	})
}

func parseOptions(s string, fn func(section, key, value string) error) error {
	var section string
	for _, line := range crstrings.Lines(s) {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			// Skip blank lines and comments.
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			continue
		}

		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return base.CorruptionErrorf("invalid key=value syntax: %q", errors.Safe(line))
		}

		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])
		if err := fn(section, key, value); err != nil {
			return err
		}
	}
	return nil
}
