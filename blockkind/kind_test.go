// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blockkind

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestFlagsMatchFileFormat(t *testing.T) {
	expected := map[Kind]Mask{
		Textures:              MaskTextures,
		Models:                MaskModels,
		World:                 MaskWorld,
		RandomModelPlacement:  MaskRandomModelPlacement,
		TextureDefinitions:    MaskTextureDefinitions,
		RoadTable:             MaskRoadTable,
		RoadConnections:       MaskRoadConnections,
		Intersections:         MaskIntersections,
		HeightmapTiles:        MaskHeightmapTiles,
		Heightmap:             MaskHeightmap,
		ModelNames:            MaskModelNames,
		EventModels:           MaskEventModels,
		Visibility:            MaskVisibility,
		SectorTextureUsage:    MaskSectorTextureUsage,
		RoadSections:          MaskRoadSections,
		IntersectionPositions: MaskIntersectionPositions,
		Lamps:                 MaskLamps,
		ChairPlacement:        MaskChairPlacement,
	}
	require.Len(t, expected, int(NumKinds)-1)
	for k, flag := range expected {
		require.Equal(t, flag, k.Flag(), "%s", k)
	}
}

func TestSlotsMatchFileFormat(t *testing.T) {
	expected := []int{0, 1, 2, 4, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 19, 20}
	var got []int
	for _, k := range All() {
		got = append(got, k.Slot())
	}
	require.Equal(t, expected, got)
	require.Equal(t, 21, NumberOfBlocks)
}

func TestReservedSlots(t *testing.T) {
	var reserved []int
	for i := 0; i < NumberOfBlocks; i++ {
		k, ok := AtSlot(i)
		if !ok {
			require.Equal(t, Unknown, k)
			require.True(t, IsReservedSlot(i))
			reserved = append(reserved, i)
			continue
		}
		require.Equal(t, i, k.Slot())
	}
	require.Equal(t, []int{3, 6, 18}, reserved)

	_, ok := AtSlot(-1)
	require.False(t, ok)
	_, ok = AtSlot(NumberOfBlocks)
	require.False(t, ok)
	require.False(t, IsReservedSlot(NumberOfBlocks))
}

func TestReservedBits(t *testing.T) {
	var reserved Mask
	for b := uint(0); b < NumBits; b++ {
		k, ok := AtBit(b)
		if !ok {
			reserved |= Mask(1) << b
			continue
		}
		require.Equal(t, b, k.Bit())
	}
	require.Equal(t, Mask(0xFFE40048), reserved)
	require.Equal(t, Mask(0x1BFFB7), Defined)
	require.Equal(t, reserved, MaskAll.Reserved())
}

func TestTraffic(t *testing.T) {
	require.Equal(t, Mask(0x30300), Traffic)
	require.Equal(t,
		MaskRoadConnections|MaskRoadSections|MaskIntersections|MaskIntersectionPositions, Traffic)
	for b := uint(0); b < NumBits; b++ {
		m := Mask(1) << b
		k, ok := AtBit(b)
		isTraffic := ok && (k == RoadConnections || k == RoadSections ||
			k == Intersections || k == IntersectionPositions)
		require.Equal(t, isTraffic, m.HasAny(Traffic), "bit %d", b)
	}
}

func TestKindString(t *testing.T) {
	for _, k := range All() {
		parsed, ok := Parse(k.String())
		require.True(t, ok)
		require.Equal(t, k, parsed)
	}
	require.Equal(t, "unknown", Unknown.String())
	require.Equal(t, "kind(200)", Kind(200).String())
	require.Equal(t, "heightmap-tiles", redact.Sprint(HeightmapTiles).StripMarkers())
	require.Panics(t, func() { Unknown.Slot() })
	require.Panics(t, func() { NumKinds.Flag() })
}

func TestMaskString(t *testing.T) {
	testCases := []struct {
		m        Mask
		expected string
	}{
		{0, "none"},
		{MaskAll, "all"},
		{MaskTextures | MaskWorld, "textures|world"},
		{Traffic, "road-connections|intersections|road-sections|intersection-positions"},
		{MaskLamps | 0x8, "lamps|0x8"},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%#x", uint32(tc.m)), func(t *testing.T) {
			require.Equal(t, tc.expected, tc.m.String())
			parsed, err := ParseMask(tc.expected)
			require.NoError(t, err)
			require.Equal(t, tc.m, parsed)
		})
	}
}

func TestParseMask(t *testing.T) {
	m, err := ParseMask("textures, 0x4")
	require.NoError(t, err)
	require.Equal(t, Mask(0x5), m)

	m, err = ParseMask("traffic|lamps")
	require.NoError(t, err)
	require.Equal(t, Traffic|MaskLamps, m)

	_, err = ParseMask("bogus")
	require.Error(t, err)
	_, err = ParseMask("")
	require.Error(t, err)
}

func TestMaskKinds(t *testing.T) {
	require.Equal(t, All(), MaskAll.Kinds())
	require.Equal(t, 18, MaskAll.Count())
	require.Empty(t, Mask(0x8).Kinds())
	require.Equal(t, []Kind{Textures, World}, (MaskTextures | MaskWorld).Kinds())
}
