// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package blocktable

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/internal/base"
)

var (
	// ErrMalformedTable is returned by Decode when the handle stream does not
	// hold exactly blockkind.NumberOfBlocks entries.
	ErrMalformedTable = errors.New("blocktable: malformed table")
	// ErrInconsistentDescriptor marks a slot that the presence mask declares
	// absent (or that is reserved) but whose source handle is non-zero. It is
	// never fatal to Decode: the mask wins and the stray handle is dropped.
	ErrInconsistentDescriptor = errors.New("blocktable: inconsistent descriptor")
	// ErrBlockAbsent is returned when a caller asks for the bytes of a block
	// that is not present.
	ErrBlockAbsent = errors.New("blocktable: block absent")
)

// InconsistencyError describes a stray handle found by Decode. The errors
// reported by Decode are marked with ErrInconsistentDescriptor and can be
// unwrapped into an *InconsistencyError with errors.As.
type InconsistencyError struct {
	Slot int
	// Kind is blockkind.Unknown for reserved slots.
	Kind   blockkind.Kind
	Handle Handle
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	return redact.StringWithoutMarkers(e)
}

// SafeFormat implements redact.SafeFormatter.
func (e *InconsistencyError) SafeFormat(w redact.SafePrinter, _ rune) {
	if e.Kind == blockkind.Unknown {
		w.Printf("slot %d is reserved but has handle %s", redact.Safe(e.Slot), e.Handle)
		return
	}
	w.Printf("slot %d (%s) is absent from the presence mask but has handle %s",
		redact.Safe(e.Slot), e.Kind, e.Handle)
}

// DecodeOptions configures Decode. The zero value is valid: inconsistencies
// are dropped silently.
type DecodeOptions struct {
	// Logger, if set, receives one line per inconsistency.
	Logger base.Logger
	// ReportInconsistency, if set, is called once per inconsistent slot, in
	// slot order, with an error marked with ErrInconsistentDescriptor.
	ReportInconsistency func(err error)
}

func (o *DecodeOptions) report(slot int, k blockkind.Kind, h Handle) {
	if o.Logger == nil && o.ReportInconsistency == nil {
		return
	}
	err := errors.Mark(&InconsistencyError{Slot: slot, Kind: k, Handle: h}, ErrInconsistentDescriptor)
	if o.Logger != nil {
		o.Logger.Infof("blocktable: ignoring stray handle: %v", err)
	}
	if o.ReportInconsistency != nil {
		o.ReportInconsistency(err)
	}
}

// Decode builds a Table from a presence mask and the slot-ordered handles of
// the on-disk descriptor table.
//
// It fails with an error marked ErrMalformedTable if len(handles) is not
// blockkind.NumberOfBlocks; no partial table is returned in that case.
func Decode(mask blockkind.Mask, handles []Handle, opts DecodeOptions) (Table, error) {
	if len(handles) != blockkind.NumberOfBlocks {
		return Table{}, errors.Mark(
			errors.Newf("blocktable: expected %d descriptors, found %d",
				redact.Safe(blockkind.NumberOfBlocks), redact.Safe(len(handles))),
			ErrMalformedTable)
	}
	var t Table
	t.reserved = mask.Reserved()
	for slot, h := range handles {
		k, ok := blockkind.AtSlot(slot)
		if !ok {
			if !h.IsZero() {
				opts.report(slot, blockkind.Unknown, h)
			}
			continue
		}
		if mask.Has(k) {
			t.entries[k] = entry{present: true, handle: h}
			continue
		}
		if !h.IsZero() {
			opts.report(slot, k, h)
		}
	}
	return t, nil
}

// Encode returns the presence mask and the blockkind.NumberOfBlocks
// slot-ordered handles describing t. Reserved and absent slots are emitted as
// zero handles.
//
// Decode(Encode(t)) == t for every table t.
func Encode(t Table) (blockkind.Mask, []Handle) {
	handles := make([]Handle, blockkind.NumberOfBlocks)
	for k := blockkind.Kind(1); k < blockkind.NumKinds; k++ {
		if e := t.entries[k]; e.present {
			handles[k.Slot()] = e.handle
		}
	}
	return t.Mask(), handles
}
