package document

import (
	"errors"
	"fmt"

	"github.com/scribe-editor/scribe/internal/engine/piece"
)

// Errors returned by document operations.
var (
	// ErrRangeViolation indicates an offset or length outside valid
	// bounds. Range violations are rejected, never clamped.
	ErrRangeViolation = piece.ErrRangeViolation

	// ErrInvalidOffset indicates a character offset beyond a row's
	// decoded length, or a byte offset falling mid-character for the
	// declared charset.
	ErrInvalidOffset = errors.New("invalid offset: not addressable under declared charset")

	// ErrDecode indicates bytes that are not valid under the declared
	// charset.
	ErrDecode = errors.New("byte sequence invalid for declared charset")
)

// ByteOffset is a byte position. Serial offsets are ByteOffsets counted
// from the start of the document, excluding any byte-order mark.
type ByteOffset = int64

// Point is a (row, column) position. Column is measured in decoded
// characters unless a method documents otherwise. Both are 0-indexed.
type Point struct {
	Row    uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Row, p.Column)
}

// Compare returns -1 if p < other, 0 if equal, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Row != other.Row {
		if p.Row < other.Row {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Range is a half-open serial byte range [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the range length in bytes.
func (r Range) Len() ByteOffset { return r.End - r.Start }

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Change describes one applied mutation in serial coordinates, plus the
// row span it touched. Listeners and the incremental highlighter consume
// these to shift and invalidate their own state.
type Change struct {
	// Old is the replaced serial range (empty for pure inserts).
	Old Range
	// New is the resulting serial range (empty for pure deletes).
	New Range
	// StartRow is the first row whose content changed.
	StartRow uint32
	// OldEndRow is the last affected row before the edit.
	OldEndRow uint32
	// NewEndRow is the last affected row after the edit.
	NewEndRow uint32
	// Version is the document's edit version after this change.
	Version uint64
}

// Delta returns the change in document length caused by this change.
func (c Change) Delta() ByteOffset {
	return c.New.Len() - c.Old.Len()
}

// RowDelta returns the change in row count caused by this change.
func (c Change) RowDelta() int {
	return int(c.NewEndRow) - int(c.OldEndRow)
}
