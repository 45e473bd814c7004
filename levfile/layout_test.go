// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levfile

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/blocktable"
	"github.com/driverlev/lev/objstorage"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	data := buildFile(t, WriterOptions{}, map[blockkind.Kind][]byte{
		blockkind.Textures: []byte("tex"),
		blockkind.Lamps:    []byte("lamps!"),
	})
	r, err := NewReader(context.Background(), objstorage.BytesReadable(data), ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	l := r.Layout()
	require.Equal(t, FormatLegacy, l.Format)
	require.Equal(t, int64(len(data)), l.Size)
	require.Equal(t, blocktable.Handle{Offset: 0, Length: 172}, l.Header)
	for i, s := range l.Slots {
		require.Equal(t, i, s.Index)
		require.Equal(t, i == 3 || i == 6 || i == 18, s.Reserved, "slot %d", i)
	}
	require.True(t, l.Slots[0].Present)
	require.Equal(t, blockkind.Textures, l.Slots[0].Kind)
	require.Equal(t, blocktable.Handle{Offset: 172, Length: 3}, l.Slots[0].Handle)
	require.False(t, l.Slots[2].Present)
	require.Equal(t, blockkind.World, l.Slots[2].Kind)
	require.Empty(t, l.Overlaps())
	// One byte of padding between textures and lamps.
	require.Equal(t, int64(1), l.Unaccounted())

	var buf strings.Builder
	l.Describe(&buf, false /* verbose */, nil)
	out := buf.String()
	require.Contains(t, out, "format: legacy\n")
	require.Contains(t, out, "mask: 0x00080001 textures|lamps\n")
	require.Contains(t, out, "(reserved)")
	require.Contains(t, out, "texture-definitions")
	require.Contains(t, out, "unaccounted: 1 bytes\n")
	require.NotContains(t, out, "header:")

	buf.Reset()
	l.Describe(&buf, true /* verbose */, r.HeaderData())
	out = buf.String()
	require.Contains(t, out, "header:\n")
	require.Contains(t, out, "# presence mask: textures|lamps")
	require.Contains(t, out, "# 172: slot 0 (textures) offset")
	require.Contains(t, out, "# 3: slot 0 (textures) length")
	require.Contains(t, out, "# 0: slot 3 (reserved) offset")
	require.Contains(t, out, "# 176: slot 19 (lamps) offset")
}

func TestLayoutOverlaps(t *testing.T) {
	data := buildFile(t, WriterOptions{Format: FormatLegacy}, map[blockkind.Kind][]byte{
		blockkind.Textures: []byte("textures"),
		blockkind.World:    []byte("world"),
		blockkind.Lamps:    []byte("lamps"),
	})
	// Point lamps (slot 19) into the middle of textures.
	binary.LittleEndian.PutUint32(data[maskLen+19*legacyHandleLen:], 174)

	r, err := NewReader(context.Background(), objstorage.BytesReadable(data), ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()
	l := r.Layout()
	require.Equal(t, []Overlap{{A: blockkind.Textures, B: blockkind.Lamps}}, l.Overlaps())

	var buf strings.Builder
	l.Describe(&buf, false /* verbose */, nil)
	require.Contains(t, buf.String(), "overlap: textures and lamps\n")
}

func TestLayoutV2Header(t *testing.T) {
	data := buildFile(t, WriterOptions{Format: FormatV2}, map[blockkind.Kind][]byte{
		blockkind.RoadTable: []byte("roads"),
	})
	r, err := NewReader(context.Background(), objstorage.BytesReadable(data), ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	var buf strings.Builder
	r.Layout().Describe(&buf, true /* verbose */, r.HeaderData())
	out := buf.String()
	require.Contains(t, out, "format: v2\n")
	require.Contains(t, out, "# LEVTBL..")
	require.Contains(t, out, "# 352: slot 7 (road-table) offset")
	require.Contains(t, out, "# checksum")
}
