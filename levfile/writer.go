// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/objstorage"
)

// WriterMetadata holds info about a finished level file.
type WriterMetadata struct {
	Format Format
	Table  blocktable.Table
	Size   uint64
}

// Writer is a level file writer. Blocks may be added in any order; they are
// laid out in slot order after the header when the writer is closed.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	writable objstorage.Writable
	opts     WriterOptions
	// err is the first error encountered; once set, every later call fails.
	err      error
	blocks   [blockkind.NumKinds][]byte
	added    blockkind.Mask
	reserved blockkind.Mask
	meta     *WriterMetadata
}

// NewWriter returns a new writer to writable. The caller must call Close,
// which finishes or aborts the writable.
func NewWriter(writable objstorage.Writable, o WriterOptions) *Writer {
	w := &Writer{
		writable: writable,
		opts:     o.EnsureDefaults(),
	}
	if err := w.opts.Validate(); err != nil {
		w.err = errors.Wrap(err, "lev: invalid writer options")
	}
	return w
}

// Add adds the data of the block of kind k. Each kind may be added at most
// once. The writer retains data until Close.
//
// An error returned by Add is sticky: every later call fails with it, and
// Close aborts the writable.
func (w *Writer) Add(k blockkind.Kind, data []byte) error {
	if w.err != nil {
		return w.err
	}
	if !k.Valid() {
		w.err = errors.Newf("lev: cannot add block of kind %s", k)
		return w.err
	}
	if w.added.Has(k) {
		w.err = errors.Newf("lev: block %s already added", k)
		return w.err
	}
	w.added |= k.Flag()
	w.blocks[k] = data
	return nil
}

// SetReserved records the reserved bits of m so that they are written back to
// the presence mask. Bits of defined kinds are ignored.
func (w *Writer) SetReserved(m blockkind.Mask) {
	w.reserved = m.Reserved()
}

// Close lays out the blocks, writes the header and the block data and
// finishes the writable. On error the writable is aborted.
func (w *Writer) Close() (err error) {
	defer func() {
		if w.err == nil {
			w.err = errors.New("lev: writer is closed")
		}
	}()
	if w.err != nil {
		if w.meta == nil && w.writable != nil {
			w.writable.Abort()
			w.writable = nil
		}
		return w.err
	}
	defer func() {
		if err != nil {
			w.err = err
			w.writable.Abort()
			w.writable = nil
		}
	}()

	align := uint64(w.opts.Alignment)
	var b blocktable.Builder
	b.SetReserved(w.reserved)
	off := uint64(w.opts.Format.HeaderLen())
	for _, k := range w.added.Kinds() {
		off = alignUp(off, align)
		n := uint64(len(w.blocks[k]))
		if err := b.Set(k, blocktable.Handle{Offset: off, Length: n}); err != nil {
			return err
		}
		off += n
	}
	table := b.Build()

	mask, handles := blocktable.Encode(table)
	hdr := header{format: w.opts.Format, mask: mask, handles: handles}
	buf, err := hdr.encode(make([]byte, 0, w.opts.Format.HeaderLen()))
	if err != nil {
		return err
	}
	if err := w.writable.Write(buf); err != nil {
		return err
	}
	pos := uint64(len(buf))
	var padding [64]byte
	for _, d := range table.Present() {
		for pos < d.Offset {
			n := min(d.Offset-pos, uint64(len(padding)))
			if err := w.writable.Write(padding[:n]); err != nil {
				return err
			}
			pos += n
		}
		if data := w.blocks[d.Kind]; len(data) > 0 {
			if err := w.writable.Write(data); err != nil {
				return err
			}
		}
		pos += d.Length
	}
	if err := w.writable.Finish(); err != nil {
		return err
	}
	w.writable = nil

	w.meta = &WriterMetadata{Format: w.opts.Format, Table: table, Size: pos}
	w.opts.Logger.Infof("lev: wrote %d blocks (%s, %s header)", table.Mask().Count(),
		crhumanize.Bytes(int64(pos), crhumanize.Compact, crhumanize.OmitI), w.opts.Format)
	return nil
}

// Abort discards the file: the writable is aborted and the writer is closed.
// It is a no-op if the writer was already closed.
func (w *Writer) Abort() {
	if w.writable != nil && w.meta == nil {
		w.writable.Abort()
		w.writable = nil
	}
	if w.err == nil {
		w.err = errors.New("lev: writer is closed")
	}
}

// Metadata returns the metadata of the finished file. It is only valid to call
// Metadata after Close returned nil.
func (w *Writer) Metadata() (*WriterMetadata, error) {
	if w.meta == nil {
		return nil, errors.New("lev: writer is not closed")
	}
	return w.meta, nil
}

func alignUp(off, align uint64) uint64 {
	return (off + align - 1) &^ (align - 1)
}
