// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package blockkind enumerates the blocks that make up a level file and the
// two numbering schemes that identify them: the presence bit in the header
// mask and the slot index in the block descriptor table.
package blockkind

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// Kind identifies the type of block.
type Kind uint8

// Unknown is the explicit "no kind" value. It is what reserved slots and
// reserved mask bits map to.
const (
	Unknown Kind = iota
	Textures
	Models
	World
	RandomModelPlacement
	TextureDefinitions
	RoadTable
	RoadConnections
	Intersections
	HeightmapTiles
	Heightmap
	ModelNames
	EventModels
	Visibility
	SectorTextureUsage
	RoadSections
	IntersectionPositions
	Lamps
	ChairPlacement

	NumKinds
)

// NumberOfBlocks is the number of slots in the on-disk block descriptor
// table, reserved slots included. This value is part of the file format.
const NumberOfBlocks = 21

// NumBits is the width of the presence mask.
const NumBits = 32

type kindInfo struct {
	name string
	bit  uint8
	slot uint8
}

// kinds is the single source of truth for both numbering schemes. The bit and
// slot values are part of the file format and must not be changed.
var kinds = [NumKinds]kindInfo{
	Textures:              {name: "textures", bit: 0, slot: 0},
	Models:                {name: "models", bit: 1, slot: 1},
	World:                 {name: "world", bit: 2, slot: 2},
	RandomModelPlacement:  {name: "random-model-placement", bit: 4, slot: 4},
	TextureDefinitions:    {name: "texture-definitions", bit: 5, slot: 5},
	RoadTable:             {name: "road-table", bit: 7, slot: 7},
	RoadConnections:       {name: "road-connections", bit: 8, slot: 8},
	Intersections:         {name: "intersections", bit: 9, slot: 9},
	HeightmapTiles:        {name: "heightmap-tiles", bit: 10, slot: 10},
	Heightmap:             {name: "heightmap", bit: 11, slot: 11},
	ModelNames:            {name: "model-names", bit: 12, slot: 12},
	EventModels:           {name: "event-models", bit: 13, slot: 13},
	Visibility:            {name: "visibility", bit: 14, slot: 14},
	SectorTextureUsage:    {name: "sector-texture-usage", bit: 15, slot: 15},
	RoadSections:          {name: "road-sections", bit: 16, slot: 16},
	IntersectionPositions: {name: "intersection-positions", bit: 17, slot: 17},
	Lamps:                 {name: "lamps", bit: 19, slot: 19},
	ChairPlacement:        {name: "chair-placement", bit: 20, slot: 20},
}

// bySlot and byBit are total inverse lookup tables. Entries that do not
// belong to a kind hold Unknown.
var (
	bySlot [NumberOfBlocks]Kind
	byBit  [NumBits]Kind
)

func init() {
	for k := Kind(1); k < NumKinds; k++ {
		info := kinds[k]
		if bySlot[info.slot] != Unknown {
			panic(fmt.Sprintf("blockkind: slot %d assigned to both %s and %s", info.slot, bySlot[info.slot], k))
		}
		if byBit[info.bit] != Unknown {
			panic(fmt.Sprintf("blockkind: bit %d assigned to both %s and %s", info.bit, byBit[info.bit], k))
		}
		bySlot[info.slot] = k
		byBit[info.bit] = k
	}
	Traffic = Union(RoadConnections, RoadSections, Intersections, IntersectionPositions)
	Defined = Union(All()...)
}

// Valid returns true if k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k > Unknown && k < NumKinds
}

// Bit returns the position of k's presence bit in the header mask. It panics
// if k is not a defined kind.
func (k Kind) Bit() uint {
	k.mustBeValid()
	return uint(kinds[k].bit)
}

// Flag returns the mask with only k's presence bit set. It panics if k is not
// a defined kind.
func (k Kind) Flag() Mask {
	return Mask(1) << k.Bit()
}

// Slot returns k's index in the block descriptor table. It panics if k is
// not a defined kind.
func (k Kind) Slot() int {
	k.mustBeValid()
	return int(kinds[k].slot)
}

func (k Kind) mustBeValid() {
	if !k.Valid() {
		panic(fmt.Sprintf("blockkind: invalid kind %d", k))
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k.Valid() {
		return kinds[k].name
	}
	if k == Unknown {
		return "unknown"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// SafeFormat implements redact.SafeFormatter.
func (k Kind) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(k.String()))
}

// All returns all defined block kinds in slot order.
func All() []Kind {
	all := make([]Kind, NumKinds-1)
	for i := range all {
		all[i] = Kind(i + 1)
	}
	return all
}

// AtSlot returns the kind that owns slot i. The second return value is false
// for reserved slots and for indices outside [0, NumberOfBlocks).
func AtSlot(i int) (Kind, bool) {
	if i < 0 || i >= NumberOfBlocks {
		return Unknown, false
	}
	k := bySlot[i]
	return k, k != Unknown
}

// AtBit returns the kind whose presence bit is at position b. The second
// return value is false for reserved bits.
func AtBit(b uint) (Kind, bool) {
	if b >= NumBits {
		return Unknown, false
	}
	k := byBit[b]
	return k, k != Unknown
}

// IsReservedSlot returns true if slot i does not belong to any kind.
func IsReservedSlot(i int) bool {
	_, ok := AtSlot(i)
	return !ok && i >= 0 && i < NumberOfBlocks
}

// Parse returns the kind with the given name. Names are those returned by
// Kind.String.
func Parse(name string) (Kind, bool) {
	for k := Kind(1); k < NumKinds; k++ {
		if kinds[k].name == name {
			return k, true
		}
	}
	return Unknown, false
}
