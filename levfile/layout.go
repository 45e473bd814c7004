// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/internal/binfmt"
	"github.com/olekukonko/tablewriter"
)

// Layout describes the physical layout of a level file.
type Layout struct {
	Format Format
	Size   int64
	Header blocktable.Handle
	Mask   blockkind.Mask
	Slots  [blockkind.NumberOfBlocks]LayoutSlot
}

// LayoutSlot describes one slot of the descriptor table.
type LayoutSlot struct {
	Index    int
	Reserved bool
	Kind     blockkind.Kind
	Present  bool
	Handle   blocktable.Handle
}

// Overlap is a pair of present blocks whose byte ranges intersect.
type Overlap struct {
	A, B blockkind.Kind
}

// Overlaps returns the pairs of present blocks whose byte ranges intersect, in
// slot order.
func (l *Layout) Overlaps() []Overlap {
	var res []Overlap
	for i := range l.Slots {
		a := &l.Slots[i]
		if !a.Present {
			continue
		}
		for j := i + 1; j < len(l.Slots); j++ {
			b := &l.Slots[j]
			if b.Present && a.Handle.Overlaps(b.Handle) {
				res = append(res, Overlap{A: a.Kind, B: b.Kind})
			}
		}
	}
	return res
}

// Unaccounted returns the number of bytes of the file that belong neither to
// the header nor to any present block.
func (l *Layout) Unaccounted() int64 {
	covered := make([]blocktable.Handle, 0, len(l.Slots)+1)
	covered = append(covered, l.Header)
	for i := range l.Slots {
		if l.Slots[i].Present && l.Slots[i].Handle.Length > 0 {
			covered = append(covered, l.Slots[i].Handle)
		}
	}
	// Sweep the file in offset order; ranges may overlap.
	var used, end uint64
	for {
		next := -1
		for i, h := range covered {
			if h.End() > end && (next < 0 || h.Offset < covered[next].Offset) {
				next = i
			}
		}
		if next < 0 {
			break
		}
		h := covered[next]
		used += h.End() - max(h.Offset, end)
		end = h.End()
	}
	return l.Size - int64(used)
}

// Describe writes a human readable description of the layout to w. If verbose
// is set and header holds the raw header bytes, an annotated hex rendering of
// the header is written too.
func (l *Layout) Describe(w io.Writer, verbose bool, header []byte) {
	fmt.Fprintf(w, "format: %s\n", l.Format)
	fmt.Fprintf(w, "size: %s\n", crhumanize.Bytes(l.Size, crhumanize.Compact, crhumanize.OmitI))
	fmt.Fprintf(w, "mask: 0x%08x %s\n", uint32(l.Mask), l.Mask)

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Slot", "Kind", "Offset", "Length", "Size"})
	tbl.Append([]string{"-", "header",
		strconv.FormatUint(l.Header.Offset, 10),
		strconv.FormatUint(l.Header.Length, 10),
		string(crhumanize.Bytes(int64(l.Header.Length), crhumanize.Compact, crhumanize.OmitI)),
	})
	for i := range l.Slots {
		s := &l.Slots[i]
		switch {
		case s.Reserved:
			tbl.Append([]string{strconv.Itoa(s.Index), "(reserved)", "", "", ""})
		case !s.Present:
			tbl.Append([]string{strconv.Itoa(s.Index), s.Kind.String(), "-", "-", "-"})
		default:
			tbl.Append([]string{strconv.Itoa(s.Index), s.Kind.String(),
				strconv.FormatUint(s.Handle.Offset, 10),
				strconv.FormatUint(s.Handle.Length, 10),
				string(crhumanize.Bytes(int64(s.Handle.Length), crhumanize.Compact, crhumanize.OmitI)),
			})
		}
	}
	tbl.Render()

	for _, o := range l.Overlaps() {
		fmt.Fprintf(w, "overlap: %s and %s\n", o.A, o.B)
	}
	if n := l.Unaccounted(); n != 0 {
		fmt.Fprintf(w, "unaccounted: %d bytes\n", n)
	}

	if verbose && len(header) >= l.Format.HeaderLen() {
		fmt.Fprintf(w, "header:\n")
		f := binfmt.New(header[:l.Format.HeaderLen()])
		describeHeader(f, l.Format)
		f.Fprint(w, "  ")
	}
}

func describeHeader(f *binfmt.Formatter, format Format) {
	handleWidth := 4
	if format == FormatV2 {
		f.HexTextln(v2MagicLen)
		handleWidth = 8
	}
	f.Line(maskLen).Binary(maskLen).Done("presence mask: %s", blockkind.Mask(f.PeekUint(maskLen)))
	for slot := 0; slot < blockkind.NumberOfBlocks; slot++ {
		name := "reserved"
		if k, ok := blockkind.AtSlot(slot); ok {
			name = k.String()
		}
		f.Uint(handleWidth, "slot %d (%s) offset", slot, name)
		f.Uint(handleWidth, "slot %d (%s) length", slot, name)
	}
	if format == FormatV2 {
		f.HexBytesln(v2ChecksumLen, "checksum")
	}
}
