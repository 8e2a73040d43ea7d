// Package rowindex maintains the row structure of a byte buffer: the byte
// length of every row (terminator included) plus a sparse prefix-sum cache
// of row start offsets taken every k rows. It answers row->offset and
// offset->(row,col) lookups without scanning the whole length array.
//
// The index mirrors one buffer; the two are kept consistent by the
// document layer feeding every mutation to both.
package rowindex

import (
	"bytes"
	"errors"
)

// ErrRangeViolation indicates a row or column outside the indexed bounds.
var ErrRangeViolation = errors.New("range violation: position outside indexed bounds")

// DefaultCheckpointInterval is the default spacing of offset checkpoints.
const DefaultCheckpointInterval = 64

// Index tracks row byte lengths for a single byte sequence.
//
// Rows include their terminating line-terminator bytes; the final row has
// none. An empty buffer has exactly one empty row, so Rows() is always at
// least 1.
type Index struct {
	rows []int64
	term []byte
	k    int

	// checkpoints[i] is the byte offset of row i*k. Populated lazily by
	// forward walks; truncated on any mutation at or before a
	// checkpointed row.
	checkpoints []int64
	total       int64
}

// New creates an index for an empty buffer using the given line-terminator
// sequence (1-2 bytes) and checkpoint interval k.
func New(term []byte, k int) *Index {
	if k <= 0 {
		k = DefaultCheckpointInterval
	}
	return &Index{
		rows:        []int64{0},
		term:        append([]byte(nil), term...),
		k:           k,
		checkpoints: []int64{0},
	}
}

// FromBytes builds an index over initial content.
func FromBytes(b []byte, term []byte, k int) *Index {
	ix := New(term, k)
	ix.Add(b)
	return ix
}

// Clone returns an independent copy of the index with the checkpoint
// cache fully populated. Get and Pos never extend a complete cache, so
// the copy serves concurrent readers without synchronization.
func (ix *Index) Clone() *Index {
	c := &Index{
		rows:        append([]int64(nil), ix.rows...),
		term:        ix.term,
		k:           ix.k,
		checkpoints: append([]int64(nil), ix.checkpoints...),
		total:       ix.total,
	}
	c.fillCheckpoints()
	return c
}

// fillCheckpoints extends the checkpoint cache to cover every row.
func (ix *Index) fillCheckpoints() {
	want := (len(ix.rows)-1)/ix.k + 1
	for len(ix.checkpoints) < want {
		cp := len(ix.checkpoints)
		off := ix.checkpoints[cp-1]
		for row := (cp - 1) * ix.k; row < cp*ix.k; row++ {
			off += ix.rows[row]
		}
		ix.checkpoints = append(ix.checkpoints, off)
	}
}

// Rows returns the number of rows.
func (ix *Index) Rows() uint32 { return uint32(len(ix.rows)) }

// Total returns the sum of all row lengths, which equals the buffer length.
func (ix *Index) Total() int64 { return ix.total }

// RowLen returns the byte length of row r including its terminator.
func (ix *Index) RowLen(r uint32) int64 {
	if int(r) >= len(ix.rows) {
		return 0
	}
	return ix.rows[r]
}

// RowLengths returns a copy of the row length array.
func (ix *Index) RowLengths() []int64 {
	return append([]int64(nil), ix.rows...)
}

// Terminator returns the line-terminator sequence the index scans for.
func (ix *Index) Terminator() []byte { return ix.term }

// Add appends bytes at the end of the indexed sequence.
func (ix *Index) Add(b []byte) {
	last := uint32(len(ix.rows) - 1)
	// Appending can never fail: the position is always in range.
	_ = ix.Insert(last, ix.rows[last], b)
}

// splitRows returns the row lengths the byte slice contributes: one entry
// per terminator match (terminator bytes belong to the row they close)
// plus a final entry for the open remainder (possibly zero).
func (ix *Index) splitRows(b []byte) []int64 {
	var out []int64
	for {
		i := bytes.Index(b, ix.term)
		if i < 0 {
			return append(out, int64(len(b)))
		}
		out = append(out, int64(i+len(ix.term)))
		b = b[i+len(ix.term):]
	}
}

// Insert records the insertion of bytes at (row, byteCol). A terminator in
// the inserted bytes closes a row and starts a new one; the row length
// array grows by newRows-1 in one shifted copy.
func (ix *Index) Insert(row uint32, byteCol int64, b []byte) error {
	if int(row) >= len(ix.rows) || byteCol < 0 || byteCol > ix.rows[row] {
		return ErrRangeViolation
	}
	if len(b) == 0 {
		return nil
	}

	segs := ix.splitRows(b)
	if len(segs) == 1 {
		ix.rows[row] += segs[0]
	} else {
		tail := ix.rows[row] - byteCol
		segs[0] += byteCol
		segs[len(segs)-1] += tail

		grown := make([]int64, 0, len(ix.rows)+len(segs)-1)
		grown = append(grown, ix.rows[:row]...)
		grown = append(grown, segs...)
		grown = append(grown, ix.rows[row+1:]...)
		ix.rows = grown
	}

	ix.total += int64(len(b))
	ix.invalidateFrom(row)
	return nil
}

// Delete records the deletion of n bytes starting at (row, byteCol).
//
// Deleting exactly the terminator sequence addressed at column 0 of row
// r > 0 is redefined as deleting the terminator at the end of row r-1,
// merging row r into row r-1: in the document coordinate system the
// terminator belongs to the row it ends, but a caller addressing "start of
// next row" expects the merge.
func (ix *Index) Delete(row uint32, byteCol int64, n int64) error {
	if int(row) >= len(ix.rows) || byteCol < 0 || n < 0 {
		return ErrRangeViolation
	}
	if n == 0 {
		return nil
	}

	if row > 0 && byteCol == 0 && n == int64(len(ix.term)) {
		prev := row - 1
		if ix.rows[prev] >= int64(len(ix.term)) {
			ix.rows[prev] = ix.rows[prev] - int64(len(ix.term)) + ix.rows[row]
			ix.rows = append(ix.rows[:row:row], ix.rows[row+1:]...)
			ix.total -= int64(len(ix.term))
			ix.invalidateFrom(prev)
			return nil
		}
	}

	if byteCol > ix.rows[row] {
		return ErrRangeViolation
	}

	// Generic multi-row deletion: drop fully consumed rows, merge the two
	// partial remainders into one.
	endRow := int(row)
	endCol := byteCol + n
	for endCol > ix.rows[endRow] {
		endCol -= ix.rows[endRow]
		endRow++
		if endRow >= len(ix.rows) {
			return ErrRangeViolation
		}
	}

	if endRow == int(row) {
		ix.rows[row] -= n
	} else {
		merged := byteCol + (ix.rows[endRow] - endCol)
		shrunk := make([]int64, 0, len(ix.rows)-(endRow-int(row)))
		shrunk = append(shrunk, ix.rows[:row]...)
		shrunk = append(shrunk, merged)
		shrunk = append(shrunk, ix.rows[endRow+1:]...)
		ix.rows = shrunk
	}

	ix.total -= n
	ix.invalidateFrom(row)
	return nil
}

// invalidateFrom truncates the checkpoint cache after a mutation at row r.
// Checkpoint i (offset of row i*k) stays valid only while every row below
// i*k is untouched.
func (ix *Index) invalidateFrom(r uint32) {
	keep := int(r)/ix.k + 1
	if keep < len(ix.checkpoints) {
		ix.checkpoints = ix.checkpoints[:keep]
	}
}

// Get returns the byte offset of the start of row r, walking forward from
// the nearest checkpoint at or before r and populating missed checkpoints
// on the way.
func (ix *Index) Get(r uint32) (int64, error) {
	if int(r) >= len(ix.rows) {
		return 0, ErrRangeViolation
	}
	cpWant := int(r) / ix.k
	cp := cpWant
	if cp >= len(ix.checkpoints) {
		cp = len(ix.checkpoints) - 1
	}

	off := ix.checkpoints[cp]
	row := cp * ix.k
	for row < int(r) {
		off += ix.rows[row]
		row++
		if row%ix.k == 0 && row/ix.k == len(ix.checkpoints) {
			ix.checkpoints = append(ix.checkpoints, off)
		}
	}
	return off, nil
}

// Serial returns the absolute byte offset of (row, byteCol).
func (ix *Index) Serial(row uint32, byteCol int64) (int64, error) {
	if int(row) >= len(ix.rows) || byteCol < 0 || byteCol > ix.rows[row] {
		return 0, ErrRangeViolation
	}
	off, err := ix.Get(row)
	if err != nil {
		return 0, err
	}
	return off + byteCol, nil
}

// Pos returns the (row, byteCol) owning the given serial offset. A serial
// at or past the indexed total is clamped to the end of the last row;
// callers rely on this for end-of-document cursor placement.
func (ix *Index) Pos(serial int64) (uint32, int64) {
	if serial < 0 {
		return 0, 0
	}
	if serial >= ix.total {
		last := uint32(len(ix.rows) - 1)
		return last, ix.rows[last]
	}

	// Binary search the populated checkpoints for the greatest offset at
	// or below serial, then scan forward.
	lo, hi := 0, len(ix.checkpoints)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.checkpoints[mid] <= serial {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	off := ix.checkpoints[lo]
	row := lo * ix.k
	for serial >= off+ix.rows[row] {
		off += ix.rows[row]
		row++
		if row%ix.k == 0 && row/ix.k == len(ix.checkpoints) {
			ix.checkpoints = append(ix.checkpoints, off)
		}
	}
	return uint32(row), serial - off
}
