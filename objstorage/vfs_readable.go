// Copyright 2023 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package objstorage

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// fileReadable implements Readable on top of an *os.File.
type fileReadable struct {
	file *os.File
	size int64
}

var _ Readable = (*fileReadable)(nil)

// OpenFile opens the named file for reading.
func OpenFile(filename string) (Readable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "objstorage: could not stat %q", filename)
	}
	return &fileReadable{file: file, size: info.Size()}, nil
}

// ReadAt is part of the Readable interface.
func (r *fileReadable) ReadAt(ctx context.Context, p []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := r.file.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Wrapf(err, "objstorage: reading %d bytes at offset %d", len(p), off)
}

// Close is part of the Readable interface.
func (r *fileReadable) Close() error {
	defer func() { r.file = nil }()
	return r.file.Close()
}

// Size is part of the Readable interface.
func (r *fileReadable) Size() int64 {
	return r.size
}

// fileBufferedWritable implements Writable on top of an *os.File, buffering
// writes.
type fileBufferedWritable struct {
	file *os.File
	bw   *bufio.Writer
}

var _ Writable = (*fileBufferedWritable)(nil)

// CreateFile creates (or truncates) the named file for writing.
func CreateFile(filename string) (Writable, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &fileBufferedWritable{file: file, bw: bufio.NewWriter(file)}, nil
}

// Write is part of the Writable interface.
func (w *fileBufferedWritable) Write(p []byte) error {
	// Ignoring the length written since bufio.Writer.Write is guaranteed to
	// return an error if the length written is < len(p).
	_, err := w.bw.Write(p)
	return err
}

// Finish is part of the Writable interface.
func (w *fileBufferedWritable) Finish() error {
	err := w.bw.Flush()
	if err == nil {
		err = w.file.Sync()
	}
	err = errors.CombineErrors(err, w.file.Close())
	w.file = nil
	return err
}

// Abort is part of the Writable interface.
func (w *fileBufferedWritable) Abort() {
	name := w.file.Name()
	_ = w.file.Close()
	_ = os.Remove(name)
	w.file = nil
}
