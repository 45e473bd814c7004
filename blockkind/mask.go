// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blockkind

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Mask is the 32-bit presence mask stored in a level file header. Bit b set
// means the block whose presence bit is b is included in the file.
type Mask uint32

// The presence flags. These values are part of the file format and should not
// be changed.
const (
	MaskTextures              Mask = 0x1
	MaskModels                Mask = 0x2
	MaskWorld                 Mask = 0x4
	MaskRandomModelPlacement  Mask = 0x10
	MaskTextureDefinitions    Mask = 0x20
	MaskRoadTable             Mask = 0x80
	MaskRoadConnections       Mask = 0x100
	MaskIntersections         Mask = 0x200
	MaskHeightmapTiles        Mask = 0x400
	MaskHeightmap             Mask = 0x800
	MaskModelNames            Mask = 0x1000
	MaskEventModels           Mask = 0x2000
	MaskVisibility            Mask = 0x4000
	MaskSectorTextureUsage    Mask = 0x8000
	MaskRoadSections          Mask = 0x10000
	MaskIntersectionPositions Mask = 0x20000
	MaskLamps                 Mask = 0x80000
	MaskChairPlacement        Mask = 0x100000

	// MaskAll sets every bit, reserved ones included.
	MaskAll Mask = 0xFFFFFFFF
)

var (
	// Traffic is the union of the traffic-related presence flags: road
	// connections, road sections, intersections and intersection positions.
	Traffic Mask
	// Defined is the union of the presence flags of every defined kind.
	// Bits outside Defined are reserved.
	Defined Mask
)

// Union returns the mask with the presence flags of the given kinds set.
func Union(ks ...Kind) Mask {
	var m Mask
	for _, k := range ks {
		m |= k.Flag()
	}
	return m
}

// Has returns true if k's presence bit is set in m.
func (m Mask) Has(k Kind) bool {
	return (m>>k.Bit())&1 == 1
}

// HasAny returns true if m and composite share at least one set bit.
func (m Mask) HasAny(composite Mask) bool {
	return m&composite != 0
}

// Reserved returns the bits of m that do not belong to any defined kind.
func (m Mask) Reserved() Mask {
	return m &^ Defined
}

// Kinds returns the defined kinds whose presence bits are set in m, in slot
// order.
func (m Mask) Kinds() []Kind {
	var ks []Kind
	for k := Kind(1); k < NumKinds; k++ {
		if m.Has(k) {
			ks = append(ks, k)
		}
	}
	return ks
}

// String returns a "|"-separated list of kind names, followed by the hex
// value of any reserved bits. The empty mask is "none" and MaskAll is "all".
func (m Mask) String() string {
	switch m {
	case 0:
		return "none"
	case MaskAll:
		return "all"
	}
	var parts []string
	for _, k := range m.Kinds() {
		parts = append(parts, k.String())
	}
	if r := m.Reserved(); r != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(r), 16))
	}
	return strings.Join(parts, "|")
}

// SafeFormat implements redact.SafeFormatter.
func (m Mask) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(m.String()))
}

// Count returns the number of defined kinds present in m.
func (m Mask) Count() int {
	return bits.OnesCount32(uint32(m & Defined))
}

// ParseMask parses a mask from its textual form. It accepts a "|" or ","
// separated list of kind names, the words "all", "none" and "traffic", and
// hexadecimal (0x-prefixed) or decimal literals.
func ParseMask(s string) (Mask, error) {
	var m Mask
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return 0, errors.Newf("blockkind: empty mask")
	}
	for _, f := range fields {
		switch f {
		case "all":
			m |= MaskAll
			continue
		case "none":
			continue
		case "traffic":
			m |= Traffic
			continue
		}
		if k, ok := Parse(f); ok {
			m |= k.Flag()
			continue
		}
		v, err := strconv.ParseUint(f, 0, 32)
		if err != nil {
			return 0, errors.Newf("blockkind: unknown block kind %q", f)
		}
		m |= Mask(v)
	}
	return m, nil
}
