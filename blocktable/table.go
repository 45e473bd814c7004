// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

/*
Package blocktable implements the block descriptor table of a level file.

A level file header carries a 32-bit presence mask followed by a fixed table
of NumberOfBlocks (offset, length) pairs, one per slot:

	<start_of_file>
	[presence mask]
	[slot 0: offset, length]    textures
	[slot 1: offset, length]    models
	[slot 2: offset, length]    world
	[slot 3: offset, length]    reserved, always (0, 0)
	...
	[slot 20: offset, length]   chair placement
	[block data ...]
	<end_of_file>

Decode turns the mask and the slot-ordered handles into a Table addressable by
blockkind.Kind; Encode is its inverse. A slot is present iff the presence bit
of its kind is set in the mask. Slots 3, 6 and 18 do not belong to any kind
and are never given a descriptor. The byte layout of the header itself (field
widths, endianness, checksums) belongs to package levfile; this package only
deals with the framing.

Tables are immutable values and are safe for concurrent use.
*/
package blocktable

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/driverlev/lev/blockkind"
)

// Handle is the file offset and length of a block.
type Handle struct {
	// Offset identifies the offset of the block within the file.
	Offset uint64
	// Length is the length of the block data.
	Length uint64
}

// IsZero returns true if both the offset and the length are zero.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// End returns the offset one past the last byte of the block.
func (h Handle) End() uint64 {
	return h.Offset + h.Length
}

// Overlaps returns true if the byte ranges of h and o intersect. Empty
// ranges never overlap anything.
func (h Handle) Overlaps(o Handle) bool {
	if h.Length == 0 || o.Length == 0 {
		return false
	}
	return h.Offset < o.End() && o.Offset < h.End()
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return redact.StringWithoutMarkers(h)
}

// SafeFormat implements redact.SafeFormatter.
func (h Handle) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("(%d, %d)", redact.Safe(h.Offset), redact.Safe(h.Length))
}

// Descriptor is the read-only view of one slot of a decoded table.
type Descriptor struct {
	Kind    blockkind.Kind
	Present bool
	// Handle is meaningful only when Present is true; it is zero otherwise.
	Handle
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return redact.StringWithoutMarkers(d)
}

// SafeFormat implements redact.SafeFormatter.
func (d Descriptor) SafeFormat(w redact.SafePrinter, _ rune) {
	if !d.Present {
		w.Printf("%s: absent", d.Kind)
		return
	}
	w.Printf("%s: %s", d.Kind, d.Handle)
}

type entry struct {
	present bool
	handle  Handle
}

// Table maps every defined block kind to its descriptor. The zero Table has
// every kind absent.
//
// Tables are comparable: two tables describing the same file header are ==.
type Table struct {
	entries [blockkind.NumKinds]entry
	// reserved holds the reserved bits of the decoded mask. They carry no
	// meaning but are preserved so that the mask round-trips exactly.
	reserved blockkind.Mask
}

// Descriptor returns the descriptor for k. Kinds that are not defined are
// reported as absent.
func (t Table) Descriptor(k blockkind.Kind) Descriptor {
	if !k.Valid() {
		return Descriptor{Kind: k}
	}
	e := t.entries[k]
	if !e.present {
		return Descriptor{Kind: k}
	}
	return Descriptor{Kind: k, Present: true, Handle: e.handle}
}

// ByteRange returns the handle of block k. If k is not present in the table
// the returned error is marked with ErrBlockAbsent; callers must check it
// rather than treating a zero handle as valid data.
func (t Table) ByteRange(k blockkind.Kind) (Handle, error) {
	d := t.Descriptor(k)
	if !d.Present {
		return Handle{}, errors.Mark(
			errors.Newf("blocktable: block %s is absent", k), ErrBlockAbsent)
	}
	return d.Handle, nil
}

// Mask returns the presence mask described by the table, reserved bits
// included.
func (t Table) Mask() blockkind.Mask {
	m := t.reserved
	for k := blockkind.Kind(1); k < blockkind.NumKinds; k++ {
		if t.entries[k].present {
			m |= k.Flag()
		}
	}
	return m
}

// HasAny returns true if any of the kinds in composite is present.
func (t Table) HasAny(composite blockkind.Mask) bool {
	return HasAny(t.Mask()&blockkind.Defined, composite)
}

// All returns the descriptors of every defined kind, in slot order.
func (t Table) All() []Descriptor {
	ds := make([]Descriptor, 0, blockkind.NumKinds-1)
	for k := blockkind.Kind(1); k < blockkind.NumKinds; k++ {
		ds = append(ds, t.Descriptor(k))
	}
	return ds
}

// Present returns the descriptors of the present kinds, in slot order.
func (t Table) Present() []Descriptor {
	var ds []Descriptor
	for k := blockkind.Kind(1); k < blockkind.NumKinds; k++ {
		if t.entries[k].present {
			ds = append(ds, t.Descriptor(k))
		}
	}
	return ds
}

// String implements fmt.Stringer.
func (t Table) String() string {
	var buf strings.Builder
	for _, d := range t.Present() {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s%s", d.Kind, d.Handle)
	}
	if buf.Len() == 0 {
		buf.WriteString("empty")
	}
	if t.reserved != 0 {
		fmt.Fprintf(&buf, " reserved=%#x", uint32(t.reserved))
	}
	return buf.String()
}

// HasAny returns true if mask and composite share a set bit. It is used to
// test composite groups such as blockkind.Traffic as one unit.
func HasAny(mask, composite blockkind.Mask) bool {
	return mask&composite != 0
}

// Builder constructs a Table from scratch, e.g. when writing a new file.
// The zero value is ready to use.
type Builder struct {
	t Table
}

// Set marks k present with the given handle.
func (b *Builder) Set(k blockkind.Kind, h Handle) error {
	if !k.Valid() {
		return errors.Newf("blocktable: cannot set undefined block kind %s", k)
	}
	b.t.entries[k] = entry{present: true, handle: h}
	return nil
}

// Clear marks k absent.
func (b *Builder) Clear(k blockkind.Kind) {
	if k.Valid() {
		b.t.entries[k] = entry{}
	}
}

// SetReserved records reserved mask bits to carry through encoding. Bits
// belonging to defined kinds are ignored.
func (b *Builder) SetReserved(m blockkind.Mask) {
	b.t.reserved = m.Reserved()
}

// Build returns the table. The builder may continue to be used; later
// changes do not affect tables already returned.
func (b *Builder) Build() Table {
	return b.t
}
