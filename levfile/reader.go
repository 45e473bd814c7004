// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/internal/base"
	"github.com/driverlev/lev/objstorage"
)

// ErrReaderClosed is returned by ReadBlock after Close.
var ErrReaderClosed = errors.New("lev: reader is closed")

// Reader is a level file reader. It is safe for concurrent use by multiple
// goroutines.
type Reader struct {
	readable objstorage.Readable
	opts     ReaderOptions
	closed   atomic.Bool

	format          Format
	table           blocktable.Table
	headerBH        blocktable.Handle
	headerData      []byte
	inconsistencies []error
}

// NewReader returns a new level file reader over readable. The header is read
// and validated eagerly. On failure, readable is closed.
func NewReader(ctx context.Context, readable objstorage.Readable, o ReaderOptions) (*Reader, error) {
	r := &Reader{
		readable: readable,
		opts:     o.EnsureDefaults(),
	}
	if err := r.init(ctx); err != nil {
		return nil, errors.CombineErrors(err, readable.Close())
	}
	return r, nil
}

// OpenFile opens the named level file for reading.
func OpenFile(ctx context.Context, filename string, o ReaderOptions) (*Reader, error) {
	readable, err := objstorage.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(ctx, readable, o)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return r, nil
}

func (r *Reader) init(ctx context.Context) error {
	h, data, err := readHeader(ctx, r.readable)
	if err != nil {
		return err
	}
	r.format = h.format
	r.headerBH = h.headerBH
	r.headerData = data

	r.table, err = blocktable.Decode(h.mask, h.handles, blocktable.DecodeOptions{
		Logger: r.opts.Logger,
		ReportInconsistency: func(err error) {
			r.inconsistencies = append(r.inconsistencies, err)
		},
	})
	if err != nil {
		return base.MarkCorruptionError(err)
	}
	if r.opts.Strict && len(r.inconsistencies) > 0 {
		return base.MarkCorruptionError(errors.Wrapf(r.inconsistencies[0],
			"lev: %d inconsistent descriptors", errors.Safe(len(r.inconsistencies))))
	}

	size := uint64(r.readable.Size())
	for _, d := range r.table.Present() {
		if err := checkRange(d, r.headerBH.End(), size); err != nil {
			return err
		}
	}
	return nil
}

// checkRange verifies that the block described by d lies within [lo, hi). An
// empty block may sit anywhere in [lo, hi].
func checkRange(d blocktable.Descriptor, lo, hi uint64) error {
	h := d.Handle
	if h.Length == 0 {
		if h.Offset < lo || h.Offset > hi {
			return base.CorruptionErrorf("lev: empty block %s at offset %d is outside [%d, %d]",
				d.Kind, errors.Safe(h.Offset), errors.Safe(lo), errors.Safe(hi))
		}
		return nil
	}
	if h.End() < h.Offset || h.Offset < lo || h.End() > hi {
		return base.CorruptionErrorf("lev: block %s %s lies outside [%d, %d)",
			d.Kind, h, errors.Safe(lo), errors.Safe(hi))
	}
	return nil
}

// Format returns the header format of the file.
func (r *Reader) Format() Format {
	return r.format
}

// Table returns the decoded descriptor table of the file. The table describes
// every present block regardless of ReaderOptions.Selection.
func (r *Reader) Table() blocktable.Table {
	return r.table
}

// Size returns the size of the file in bytes.
func (r *Reader) Size() int64 {
	return r.readable.Size()
}

// HeaderData returns the raw bytes of the file header.
func (r *Reader) HeaderData() []byte {
	return r.headerData
}

// Inconsistencies returns the stray handles that were dropped while decoding
// the header. Each error is marked with blocktable.ErrInconsistentDescriptor.
func (r *Reader) Inconsistencies() []error {
	return r.inconsistencies
}

// HasTraffic returns true if the file contains any of the traffic blocks.
func (r *Reader) HasTraffic() bool {
	return r.table.HasAny(blockkind.Traffic)
}

// Selected returns the descriptors of the present blocks that can be loaded
// with ReadBlock, in slot order.
func (r *Reader) Selected() []blocktable.Descriptor {
	var res []blocktable.Descriptor
	for _, d := range r.table.Present() {
		if r.opts.Selection.Has(d.Kind) {
			res = append(res, d)
		}
	}
	return res
}

// ReadBlock reads the data of the block of kind k. It returns an error marked
// with blocktable.ErrBlockAbsent if the block is not present in the file or
// was excluded by ReaderOptions.Selection.
func (r *Reader) ReadBlock(ctx context.Context, k blockkind.Kind) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrReaderClosed
	}
	if k.Valid() && !r.opts.Selection.Has(k) {
		return nil, errors.Mark(errors.Newf("lev: block %s is not selected", k), blocktable.ErrBlockAbsent)
	}
	h, err := r.table.ByteRange(k)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, h.Length)
	if h.Length == 0 {
		return buf, nil
	}
	if err := r.readable.ReadAt(ctx, buf, int64(h.Offset)); err != nil {
		return nil, errors.Wrapf(err, "lev: reading block %s", k)
	}
	return buf, nil
}

// Layout returns the layout of the file.
func (r *Reader) Layout() *Layout {
	l := &Layout{
		Format: r.format,
		Size:   r.readable.Size(),
		Header: r.headerBH,
		Mask:   r.table.Mask(),
	}
	for slot := range l.Slots {
		s := &l.Slots[slot]
		s.Index = slot
		k, ok := blockkind.AtSlot(slot)
		if !ok {
			s.Reserved = true
			continue
		}
		d := r.table.Descriptor(k)
		s.Kind = k
		s.Present = d.Present
		s.Handle = d.Handle
	}
	return l
}

// Close closes the reader and the underlying readable. Close must not be
// called concurrently with ReadBlock.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrReaderClosed
	}
	return r.readable.Close()
}
