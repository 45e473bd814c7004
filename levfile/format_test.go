// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/internal/base"
	"github.com/stretchr/testify/require"
)

func randomHeader(rng *rand.Rand, format Format) header {
	h := header{
		format:  format,
		mask:    blockkind.Mask(rng.Uint32()),
		handles: make([]blocktable.Handle, blockkind.NumberOfBlocks),
	}
	limit := uint64(math.MaxUint32)
	if format == FormatV2 {
		limit = math.MaxUint64
	}
	for i := range h.handles {
		h.handles[i] = blocktable.Handle{Offset: rng.Uint64N(limit), Length: rng.Uint64N(limit)}
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	seed := uint64(rand.Int64())
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewPCG(seed, seed))

	for _, format := range []Format{FormatLegacy, FormatV2} {
		for i := 0; i < 100; i++ {
			h := randomHeader(rng, format)
			buf, err := h.encode(nil)
			require.NoError(t, err)
			require.Len(t, buf, format.HeaderLen())

			// Trailing block data must not affect decoding.
			buf = append(buf, "trailing"...)
			decoded, err := decodeHeader(buf)
			require.NoError(t, err)
			require.Equal(t, format, decoded.format)
			require.Equal(t, h.mask, decoded.mask)
			require.Equal(t, h.handles, decoded.handles)
			require.Equal(t, blocktable.Handle{Length: uint64(format.HeaderLen())}, decoded.headerBH)
		}
	}
}

func TestLegacyHeaderLayout(t *testing.T) {
	h := header{
		format:  FormatLegacy,
		mask:    blockkind.MaskWorld | blockkind.MaskChairPlacement,
		handles: make([]blocktable.Handle, blockkind.NumberOfBlocks),
	}
	h.handles[blockkind.World.Slot()] = blocktable.Handle{Offset: 172, Length: 0x01020304}
	h.handles[blockkind.ChairPlacement.Slot()] = blocktable.Handle{Offset: 0xAABBCCDD, Length: 1}
	buf, err := h.encode(nil)
	require.NoError(t, err)
	require.Len(t, buf, 172)

	require.Equal(t, []byte{0x04, 0x00, 0x10, 0x00}, buf[:4])
	require.Equal(t, []byte{172, 0, 0, 0, 0x04, 0x03, 0x02, 0x01}, buf[20:28])
	require.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA, 1, 0, 0, 0}, buf[164:172])
}

func TestLegacyHeaderOverflow(t *testing.T) {
	h := header{format: FormatLegacy, handles: make([]blocktable.Handle, blockkind.NumberOfBlocks)}
	h.handles[7] = blocktable.Handle{Offset: math.MaxUint32 + 1}
	_, err := h.encode(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "slot 7 handle (4294967296, 0) does not fit the legacy header format")

	h.format = FormatV2
	_, err = h.encode(nil)
	require.NoError(t, err)

	h.handles = h.handles[:20]
	_, err = h.encode(nil)
	require.True(t, errors.Is(err, blocktable.ErrMalformedTable))
}

func TestV2HeaderChecksum(t *testing.T) {
	h := randomHeader(rand.New(rand.NewPCG(1, 2)), FormatV2)
	buf, err := h.encode(nil)
	require.NoError(t, err)
	require.Equal(t, v2Magic, string(buf[:8]))

	for _, off := range []int{8, 12, 100, v2ChecksumOff - 1, v2ChecksumOff} {
		corrupted := append([]byte(nil), buf...)
		corrupted[off] ^= 0x10
		_, err := decodeHeader(corrupted)
		require.Error(t, err, "offset %d", off)
		require.True(t, base.IsCorruptionError(err))
		require.Contains(t, err.Error(), "header checksum mismatch")
	}
}

func TestHeaderFormatDetection(t *testing.T) {
	// A legacy header whose bytes happen to start with the v2 magic is only
	// treated as v2 if the file is large enough to hold a v2 header.
	buf := make([]byte, legacyHeaderLen)
	copy(buf, v2Magic)
	h, err := decodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, FormatLegacy, h.format)
	require.Equal(t, blockkind.Mask(binary.LittleEndian.Uint32([]byte(v2Magic))), h.mask)

	_, err = decodeHeader(buf[:legacyHeaderLen-1])
	require.True(t, base.IsCorruptionError(err))
}

func TestFormatString(t *testing.T) {
	for _, f := range []Format{FormatLegacy, FormatV2} {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		require.Equal(t, f, parsed)
	}
	_, err := ParseFormat("v3")
	require.Error(t, err)
	require.Equal(t, "unknown", Format(99).String())
	require.Equal(t, 172, FormatLegacy.HeaderLen())
	require.Equal(t, 352, FormatV2.HeaderLen())
	require.Panics(t, func() { FormatUnspecified.HeaderLen() })
}
