// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

/*
Package levfile implements readers and writers of level files.

A level file is a header followed by the data of its blocks:

	<start_of_file>
	[header]
	[block data, in slot order]
	<end_of_file>

Two header formats are supported. The legacy format is the 32-bit layout of
the game's own files:

	presence mask   (uint32)
	21 x
	  offset        (uint32)
	  length        (uint32)

The v2 format widens the handles and protects the header with a checksum:

	magic           (8 bytes, "LEVTBL\x00\x02")
	presence mask   (uint32)
	21 x
	  offset        (uint64)
	  length        (uint64)
	checksum        (uint32, low 32 bits of xxhash64 over the preceding bytes)

All integers are little-endian. Offsets are absolute file offsets. The
framing of the descriptor table (which slots are present, reserved slots,
etc.) is handled by package blocktable.

To read the world geometry of a level:

	r, err := levfile.OpenFile(ctx, "level.lev", levfile.ReaderOptions{})
	if err != nil {
		return err
	}
	defer r.Close()
	world, err := r.ReadBlock(ctx, blockkind.World)
	if errors.Is(err, blocktable.ErrBlockAbsent) {
		// The level has no world block.
	}

Errors are marked with sentinels using github.com/cockroachdb/errors.Mark.
Callers must test for them with errors.Is from that package; the standard
library's errors.Is does not see marks.

To write a level:

	w := levfile.NewWriter(writable, levfile.WriterOptions{})
	if err := w.Add(blockkind.Textures, textures); err != nil {
		// The error is sticky: Close aborts the writable.
		_ = w.Close()
		return err
	}
	return w.Close()

Use Writer.Abort to discard a file for a reason the writer does not know
about, such as a failed read of the source data.
*/
package levfile

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/internal/base"
	"github.com/driverlev/lev/objstorage"
)

// Format is the header format of a level file.
type Format uint8

// The available header formats. These values are part of the options file
// format and should not be changed.
const (
	FormatUnspecified Format = iota
	FormatLegacy
	FormatV2

	FormatDefault = FormatLegacy
	FormatMax     = FormatV2
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatUnspecified:
		return "unspecified"
	case FormatLegacy:
		return "legacy"
	case FormatV2:
		return "v2"
	default:
		return "unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (f Format) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(f.String()))
}

// ParseFormat parses the string representation of a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "legacy":
		return FormatLegacy, nil
	case "v2":
		return FormatV2, nil
	default:
		return FormatUnspecified, errors.Newf("lev: unknown header format %q", s)
	}
}

const (
	maskLen = 4

	legacyHandleLen = 4 + 4
	legacyHeaderLen = maskLen + blockkind.NumberOfBlocks*legacyHandleLen

	v2Magic       = "LEVTBL\x00\x02"
	v2MagicLen    = len(v2Magic)
	v2HandleLen   = 8 + 8
	v2ChecksumLen = 4
	v2ChecksumOff = v2MagicLen + maskLen + blockkind.NumberOfBlocks*v2HandleLen
	v2HeaderLen   = v2ChecksumOff + v2ChecksumLen

	minHeaderLen = legacyHeaderLen
	maxHeaderLen = v2HeaderLen
)

// HeaderLen returns the length in bytes of a header in format f.
func (f Format) HeaderLen() int {
	switch f {
	case FormatLegacy:
		return legacyHeaderLen
	case FormatV2:
		return v2HeaderLen
	default:
		panic(errors.AssertionFailedf("lev: invalid header format %d", f))
	}
}

// header is the decoded, not yet interpreted, file header.
type header struct {
	format  Format
	mask    blockkind.Mask
	handles []blocktable.Handle
	// headerBH is the location of the header itself.
	headerBH blocktable.Handle
}

// readHeader reads and decodes the header of the object. It returns the
// raw header bytes along with the decoded header.
func readHeader(ctx context.Context, r objstorage.Readable) (header, []byte, error) {
	size := r.Size()
	if size < minHeaderLen {
		return header{}, nil, base.CorruptionErrorf(
			"lev: invalid level file (file size %d is too small)", errors.Safe(size))
	}
	buf := make([]byte, min(size, int64(maxHeaderLen)))
	if err := r.ReadAt(ctx, buf, 0); err != nil {
		return header{}, nil, errors.Wrap(err, "lev: invalid level file (could not read header)")
	}
	h, err := decodeHeader(buf)
	if err != nil {
		return header{}, nil, err
	}
	return h, buf[:h.headerBH.Length], nil
}

// decodeHeader decodes the header at the start of buf, detecting its format.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) >= v2HeaderLen && string(buf[:v2MagicLen]) == v2Magic {
		return decodeV2Header(buf[:v2HeaderLen])
	}
	if len(buf) < legacyHeaderLen {
		return header{}, base.CorruptionErrorf(
			"lev: invalid level file (header too short): %d", errors.Safe(len(buf)))
	}
	buf = buf[:legacyHeaderLen]
	h := header{
		format:   FormatLegacy,
		mask:     blockkind.Mask(binary.LittleEndian.Uint32(buf)),
		handles:  make([]blocktable.Handle, blockkind.NumberOfBlocks),
		headerBH: blocktable.Handle{Offset: 0, Length: legacyHeaderLen},
	}
	buf = buf[maskLen:]
	for i := range h.handles {
		h.handles[i].Offset = uint64(binary.LittleEndian.Uint32(buf))
		h.handles[i].Length = uint64(binary.LittleEndian.Uint32(buf[4:]))
		buf = buf[legacyHandleLen:]
	}
	return h, nil
}

func decodeV2Header(buf []byte) (header, error) {
	expected := binary.LittleEndian.Uint32(buf[v2ChecksumOff:])
	if computed := uint32(xxhash.Sum64(buf[:v2ChecksumOff])); computed != expected {
		return header{}, base.CorruptionErrorf(
			"lev: invalid level file (header checksum mismatch %x != %x)",
			errors.Safe(expected), errors.Safe(computed))
	}
	h := header{
		format:   FormatV2,
		mask:     blockkind.Mask(binary.LittleEndian.Uint32(buf[v2MagicLen:])),
		handles:  make([]blocktable.Handle, blockkind.NumberOfBlocks),
		headerBH: blocktable.Handle{Offset: 0, Length: uint64(v2HeaderLen)},
	}
	buf = buf[v2MagicLen+maskLen : v2ChecksumOff]
	for i := range h.handles {
		h.handles[i].Offset = binary.LittleEndian.Uint64(buf)
		h.handles[i].Length = binary.LittleEndian.Uint64(buf[8:])
		buf = buf[v2HandleLen:]
	}
	return h, nil
}

// encode appends the encoding of the header to buf.
func (h header) encode(buf []byte) ([]byte, error) {
	if len(h.handles) != blockkind.NumberOfBlocks {
		return nil, errors.Mark(
			errors.Newf("lev: expected %d handles, found %d",
				redact.Safe(blockkind.NumberOfBlocks), redact.Safe(len(h.handles))),
			blocktable.ErrMalformedTable)
	}
	switch h.format {
	case FormatLegacy:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(h.mask))
		for slot, bh := range h.handles {
			if bh.Offset > math.MaxUint32 || bh.Length > math.MaxUint32 {
				return nil, errors.Newf("lev: slot %d handle %s does not fit the legacy header format",
					redact.Safe(slot), bh)
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(bh.Offset))
			buf = binary.LittleEndian.AppendUint32(buf, uint32(bh.Length))
		}

	case FormatV2:
		start := len(buf)
		buf = append(buf, v2Magic...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(h.mask))
		for _, bh := range h.handles {
			buf = binary.LittleEndian.AppendUint64(buf, bh.Offset)
			buf = binary.LittleEndian.AppendUint64(buf, bh.Length)
		}
		checksum := uint32(xxhash.Sum64(buf[start:]))
		buf = binary.LittleEndian.AppendUint32(buf, checksum)

	default:
		return nil, errors.Newf("lev: unsupported header format %s", h.format)
	}
	return buf, nil
}
