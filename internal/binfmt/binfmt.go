// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package binfmt exposes utilities for formatting binary data with descriptive
// comments.
package binfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/crlib/crstrings"
)

// New constructs a new binary formatter.
func New(data []byte) *Formatter {
	offsetWidth := strconv.Itoa(max(int(math.Log10(float64(len(data)-1)))+1, 1))
	return &Formatter{
		data:            data,
		lineWidth:       40,
		offsetFormatStr: "%0" + offsetWidth + "d-%0" + offsetWidth + "d: ",
	}
}

// Formatter is a utility for formatting binary data with descriptive comments.
type Formatter struct {
	buf   bytes.Buffer
	lines [][2]string // (binary data, comment) tuples
	data  []byte
	off   int

	// config
	lineWidth       int
	offsetFormatStr string
}

// LineWidth sets the Formatter's maximum line width for binary data.
func (f *Formatter) LineWidth(width int) *Formatter {
	f.lineWidth = width
	return f
}

// More returns true if there is more data in the byte slice that can be formatted.
func (f *Formatter) More() bool {
	return f.off < len(f.data)
}

// Remaining returns the number of unformatted bytes remaining in the byte slice.
func (f *Formatter) Remaining() int {
	return len(f.data) - f.off
}

// Offset returns the current offset within the original data slice.
func (f *Formatter) Offset() int {
	return f.off
}

// PeekUint reads a little-endian unsigned integer of the specified width at the
// current offset.
func (f *Formatter) PeekUint(w int) uint64 {
	switch w {
	case 1:
		return uint64(f.data[f.off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(f.data[f.off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(f.data[f.off:]))
	case 8:
		return binary.LittleEndian.Uint64(f.data[f.off:])
	default:
		panic("unsupported width")
	}
}

// Uint formats the next w bytes as a little-endian unsigned integer in
// hexadecimal, prefixing the comment with its decimal value.
func (f *Formatter) Uint(w int, format string, args ...interface{}) int {
	v := f.PeekUint(w)
	return f.HexBytesln(w, "%d: %s", v, fmt.Sprintf(format, args...))
}

// HexBytesln formats the next n bytes in hexadecimal format, appending the
// formatted comment string to each line and ending on a newline.
func (f *Formatter) HexBytesln(n int, format string, args ...interface{}) int {
	consumed := n
	commentLine := strings.TrimSpace(fmt.Sprintf(format, args...))
	printLine := func() {
		bytesInLine := min(f.lineWidth/2, n)
		if f.buf.Len() == 0 {
			f.printOffsets(bytesInLine)
		}
		f.printf("x %0"+strconv.Itoa(bytesInLine*2)+"x", f.data[f.off:f.off+bytesInLine])
		f.newline(f.buf.String(), commentLine)
		f.off += bytesInLine
		n -= bytesInLine
	}
	printLine()
	commentLine = "(continued...)"
	for n > 0 {
		printLine()
	}
	return consumed
}

// HexTextln formats the next n bytes in hexadecimal format, appending a comment
// to each line showing the ASCII equivalent characters for each byte for bytes
// that are human-readable.
func (f *Formatter) HexTextln(n int) int {
	consumed := n
	printLine := func() {
		bytesInLine := min(f.lineWidth/2, n)
		if f.buf.Len() == 0 {
			f.printOffsets(bytesInLine)
		}
		f.printf("x %0"+strconv.Itoa(bytesInLine*2)+"x", f.data[f.off:f.off+bytesInLine])
		commentLine := asciiChars(f.data[f.off : f.off+bytesInLine])
		f.newline(f.buf.String(), commentLine)
		f.off += bytesInLine
		n -= bytesInLine
	}
	printLine()
	for n > 0 {
		printLine()
	}
	return consumed
}

// Comment adds a comment-only line to the output, consuming no data.
func (f *Formatter) Comment(format string, args ...interface{}) {
	f.newline("", fmt.Sprintf(format, args...))
}

// Line prepares a single line of formatted output that will consume n bytes,
// but formatting those n bytes in multiple ways. The line will be prefixed with
// the offsets for the line's entire data.
func (f *Formatter) Line(n int) Line {
	f.printOffsets(n)
	return Line{f: f, n: n, i: 0}
}

// String returns the current formatted output.
func (f *Formatter) String() string {
	f.buf.Reset()
	// Identify the max width of the binary data so that we can add padding to
	// align comments on the right.
	binaryLineWidth := 0
	for _, lineData := range f.lines {
		binaryLineWidth = max(binaryLineWidth, len(lineData[0]))
	}
	for _, lineData := range f.lines {
		fmt.Fprint(&f.buf, lineData[0])
		if len(lineData[1]) > 0 {
			if len(lineData[0]) == 0 {
				// There's no binary data on this line, just a comment. Print
				// the comment left-aligned.
				fmt.Fprint(&f.buf, "# ")
			} else {
				// Align the comment to the right of the binary data.
				fmt.Fprint(&f.buf, strings.Repeat(" ", binaryLineWidth-len(lineData[0])))
				fmt.Fprint(&f.buf, " # ")
			}
			fmt.Fprint(&f.buf, lineData[1])
		}
		fmt.Fprintln(&f.buf)
	}
	return f.buf.String()
}

// Fprint formats the current output and writes it to w, one line at a time,
// each line preceded by indent. The current output is reset; the position
// within the binary buffer is not.
func (f *Formatter) Fprint(w io.Writer, indent string) {
	for _, l := range crstrings.Lines(f.String()) {
		fmt.Fprintf(w, "%s%s\n", indent, l)
	}
	f.buf.Reset()
	f.lines = f.lines[:0]
}

func (f *Formatter) newline(binaryData, comment string) {
	f.lines = append(f.lines, [2]string{binaryData, comment})
	f.buf.Reset()
}

func (f *Formatter) printOffsets(n int) {
	f.printf(f.offsetFormatStr, f.off, f.off+n)
}

func (f *Formatter) printf(format string, args ...interface{}) {
	fmt.Fprintf(&f.buf, format, args...)
}

// Line is a pending line of formatted binary output.
type Line struct {
	f *Formatter
	n int
	i int
}

// Binary formats the next n bytes in binary format, displaying each bit as
// a zero or one.
func (l Line) Binary(n int) Line {
	if n+l.i > l.n {
		panic("binary data exceeds consumed line length")
	}
	for i := 0; i < n; i++ {
		l.f.printf("%08b", l.f.data[l.f.off+l.i])
		l.i++
	}
	return l
}

// Done finishes the line, appending the provided comment if any.
func (l Line) Done(format string, args ...interface{}) int {
	if l.n != l.i {
		panic("unconsumed data in line")
	}
	l.f.newline(l.f.buf.String(), fmt.Sprintf(format, args...))
	l.f.off += l.n
	return l.n
}

func asciiChars(b []byte) string {
	s := make([]byte, len(b))
	for i := range b {
		if b[i] >= 32 && b[i] <= 126 {
			s[i] = b[i]
		} else {
			s[i] = '.'
		}
	}
	return string(s)
}
