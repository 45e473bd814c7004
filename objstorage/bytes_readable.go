// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package objstorage

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
)

// BytesReadable implements Readable for a byte slice.
type BytesReadable []byte

var _ Readable = (BytesReadable)(nil)

// ReadAt is part of the Readable interface.
func (r BytesReadable) ReadAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 || off > int64(len(r)) || int64(len(p)) > int64(len(r))-off {
		return errors.Wrapf(io.ErrUnexpectedEOF, "objstorage: read of %d bytes at offset %d past end of %d-byte object",
			len(p), off, len(r))
	}
	copy(p, r[off:])
	return nil
}

// Close is part of the Readable interface.
func (r BytesReadable) Close() error { return nil }

// Size is part of the Readable interface.
func (r BytesReadable) Size() int64 { return int64(len(r)) }

// MemWritable is a Writable that accumulates the object in memory.
type MemWritable struct {
	buf      []byte
	finished bool
	aborted  bool
}

var _ Writable = (*MemWritable)(nil)

// Write is part of the Writable interface.
func (w *MemWritable) Write(p []byte) error {
	if w.finished || w.aborted {
		return errors.New("objstorage: write after finish or abort")
	}
	w.buf = append(w.buf, p...)
	return nil
}

// Finish is part of the Writable interface.
func (w *MemWritable) Finish() error {
	if w.aborted {
		return errors.New("objstorage: finish after abort")
	}
	w.finished = true
	return nil
}

// Abort is part of the Writable interface.
func (w *MemWritable) Abort() {
	w.aborted = true
	w.buf = nil
}

// Data returns the bytes written so far.
func (w *MemWritable) Data() []byte {
	return w.buf
}

// Finished returns true once Finish has succeeded.
func (w *MemWritable) Finished() bool {
	return w.finished
}
